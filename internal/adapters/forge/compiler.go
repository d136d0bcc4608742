package forge

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// CommandRunner runs a toolchain command in dir and returns its combined output
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Compiler builds the project with Foundry or Hardhat and loads contract
// artifacts. The project is built at most once per process; artifacts are
// cached by contract name.
type Compiler struct {
	log          *slog.Logger
	projectRoot  string
	toolchain    config.Toolchain
	artifactsDir string
	skipBuild    bool
	run          CommandRunner

	buildMu sync.Mutex
	built   bool

	mu    sync.Mutex
	cache map[string]*models.Artifact
}

// NewCompiler creates a compiler for the configured toolchain
func NewCompiler(cfg *config.RuntimeConfig, log *slog.Logger) *Compiler {
	return newCompiler(cfg, log, execRunner)
}

func newCompiler(cfg *config.RuntimeConfig, log *slog.Logger, run CommandRunner) *Compiler {
	artifactsDir := cfg.Compiler.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir(cfg.Compiler.Toolchain)
	}
	if !filepath.IsAbs(artifactsDir) {
		artifactsDir = filepath.Join(cfg.ProjectRoot, artifactsDir)
	}

	return &Compiler{
		log:          log.With("component", "Compiler"),
		projectRoot:  cfg.ProjectRoot,
		toolchain:    cfg.Compiler.Toolchain,
		artifactsDir: artifactsDir,
		skipBuild:    cfg.Compiler.SkipBuild,
		run:          run,
		cache:        make(map[string]*models.Artifact),
	}
}

func defaultArtifactsDir(toolchain config.Toolchain) string {
	if toolchain == config.ToolchainHardhat {
		return filepath.Join("artifacts", "contracts")
	}
	return "out"
}

// Compile returns the deployable artifact of contractName
func (c *Compiler) Compile(ctx context.Context, contractName string) (*models.Artifact, error) {
	if artifact, ok := c.cached(contractName); ok {
		return artifact, nil
	}

	if output, err := c.ensureBuilt(ctx); err != nil {
		return nil, &domain.CompilationError{Contract: contractName, Output: string(output), Err: err}
	}

	path, err := c.findArtifact(contractName)
	if err != nil {
		return nil, &domain.CompilationError{Contract: contractName, Err: err}
	}

	artifact, err := LoadArtifact(path, contractName)
	if err != nil {
		return nil, &domain.CompilationError{Contract: contractName, Err: err}
	}

	c.log.Debug("loaded artifact", "contract", contractName, "path", path, "bytecodeHash", artifact.BytecodeHash)
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[contractName]; ok {
		return existing, nil
	}
	c.cache[contractName] = artifact
	return artifact, nil
}

func (c *Compiler) cached(contractName string) (*models.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	artifact, ok := c.cache[contractName]
	return artifact, ok
}

// ensureBuilt runs the build once. A failed build is retried by the next
// caller.
func (c *Compiler) ensureBuilt(ctx context.Context) ([]byte, error) {
	if c.skipBuild {
		return nil, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if c.built {
		return nil, nil
	}
	output, err := c.build(ctx)
	if err != nil {
		return output, err
	}
	c.built = true
	return nil, nil
}

func (c *Compiler) build(ctx context.Context) ([]byte, error) {
	name, args := "forge", []string{"build"}
	if c.toolchain == config.ToolchainHardhat {
		name, args = "npx", []string{"hardhat", "compile"}
	}

	start := time.Now()
	c.log.Debug("running build", "command", name, "args", args, "dir", c.projectRoot)

	output, err := c.run(ctx, c.projectRoot, name, args...)
	duration := time.Since(start)
	if err != nil {
		c.log.Error("build failed", "command", name, "error", err, "duration", duration)
		return output, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}

	c.log.Debug("build completed successfully", "duration", duration)
	return output, nil
}

// findArtifact locates <contractName>.json below the artifacts directory
func (c *Compiler) findArtifact(contractName string) (string, error) {
	if _, err := os.Stat(c.artifactsDir); err != nil {
		return "", fmt.Errorf("artifacts directory %s not found: %w", c.artifactsDir, err)
	}

	target := contractName + ".json"
	var matches []string

	err := filepath.WalkDir(c.artifactsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip build info files
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == target {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan artifacts: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no artifact for %s in %s", contractName, c.artifactsDir)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		rel := make([]string, len(matches))
		for i, m := range matches {
			rel[i], _ = filepath.Rel(c.projectRoot, m)
		}
		return "", fmt.Errorf("ambiguous contract name %s, found in: %s", contractName, strings.Join(rel, ", "))
	}
}

var _ usecase.ContractCompiler = (*Compiler)(nil)
