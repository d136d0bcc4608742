package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
)

// DataDirName is the directory holding the file ledger
const DataDirName = ".deployd"

// projectMarkers identify a contract project root, checked in order
var projectMarkers = []string{ConfigFileName, "foundry.toml", "hardhat.config.js", "hardhat.config.ts"}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}
	if !filepath.IsAbs(projectRoot) {
		absPath, err := filepath.Abs(projectRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project root: %w", err)
		}
		projectRoot = absPath
	}

	// Load .env files first for variable expansion
	loadEnvFiles(projectRoot)

	configFile := v.GetString("config")
	if configFile == "" {
		candidate := filepath.Join(projectRoot, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}

	file := &DeploydFile{}
	if configFile != "" {
		loaded, err := LoadDeploydFile(configFile)
		if err != nil {
			return nil, err
		}
		file = loaded
	}
	applyFileDefaults(v, file)

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = filepath.Join(projectRoot, DataDirName)
	} else if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(projectRoot, dataDir)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:         projectRoot,
		DataDir:             dataDir,
		ConfigFile:          configFile,
		Contract:            v.GetString("contract"),
		Network:             v.GetString("network"),
		ConstructorArgs:     v.GetStringSlice("constructor_args"),
		Debug:               v.GetBool("debug"),
		JSON:                v.GetBool("json"),
		Timeout:             v.GetDuration("timeout"),
		ConfirmationTimeout: v.GetDuration("confirmation_timeout"),
		Compiler: config.CompilerConfig{
			Toolchain:    config.Toolchain(strings.ToLower(v.GetString("compiler.toolchain"))),
			SkipBuild:    v.GetBool("compiler.skip_build"),
			ArtifactsDir: v.GetString("compiler.artifacts_dir"),
		},
		Ledger: config.LedgerConfig{
			Driver:      config.LedgerDriver(strings.ToLower(v.GetString("ledger.driver"))),
			DatabaseURL: os.ExpandEnv(v.GetString("ledger.database_url")),
		},
		Server: config.ServerConfig{
			Port:            v.GetInt("server.port"),
			AuthToken:       os.ExpandEnv(v.GetString("server.auth_token")),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Networks: BuildNetworks(file.Networks),
	}

	if cfg.Compiler.Toolchain == config.ToolchainFoundry && cfg.Compiler.ArtifactsDir == "" {
		out, err := foundryOutDir(projectRoot, os.Getenv("FOUNDRY_PROFILE"))
		if err != nil {
			return nil, err
		}
		cfg.Compiler.ArtifactsDir = out
	}

	cfg.Triggers = buildTriggers(cfg, file.Triggers)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildTriggers fills trigger entries from the top-level defaults. Without
// [[triggers]] a single trigger serves the default contract on server.port.
func buildTriggers(cfg *config.RuntimeConfig, entries []TriggerEntry) []config.TriggerConfig {
	if len(entries) == 0 {
		return []config.TriggerConfig{{
			Port:            cfg.Server.Port,
			Contract:        cfg.Contract,
			Network:         cfg.Network,
			ConstructorArgs: cfg.ConstructorArgs,
		}}
	}

	triggers := make([]config.TriggerConfig, 0, len(entries))
	for _, e := range entries {
		t := config.TriggerConfig{
			Port:            e.Port,
			Contract:        e.Contract,
			Network:         e.Network,
			ConstructorArgs: e.ConstructorArgs,
		}
		if t.Contract == "" {
			t.Contract = cfg.Contract
		}
		if t.Network == "" {
			t.Network = cfg.Network
		}
		if t.ConstructorArgs == nil && t.Contract == cfg.Contract {
			t.ConstructorArgs = cfg.ConstructorArgs
		}
		triggers = append(triggers, t)
	}
	return triggers
}

func validate(cfg *config.RuntimeConfig) error {
	switch cfg.Compiler.Toolchain {
	case config.ToolchainFoundry, config.ToolchainHardhat:
	default:
		return fmt.Errorf("unsupported compiler toolchain %q (expected foundry or hardhat)", cfg.Compiler.Toolchain)
	}

	switch cfg.Ledger.Driver {
	case config.LedgerDriverFile:
	case config.LedgerDriverPostgres:
		if cfg.Ledger.DatabaseURL == "" {
			return fmt.Errorf("ledger driver postgres requires ledger.database_url")
		}
	default:
		return fmt.Errorf("unsupported ledger driver %q (expected file or postgres)", cfg.Ledger.Driver)
	}

	ports := make(map[int]bool)
	for _, t := range cfg.Triggers {
		if t.Port == 0 {
			continue
		}
		if ports[t.Port] {
			return fmt.Errorf("port %d is used by more than one trigger", t.Port)
		}
		ports[t.Port] = true
	}

	return nil
}

// FindProjectRoot walks up from current directory to find a project marker.
// Falls back to the current directory when none is found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"config":       "config",
	"project-root": "project_root",
	"network":      "network",
	"debug":        "debug",
	"json":         "json",
	"port":         "server.port",
	"timeout":      "timeout",
}

// SetupViper creates and configures a viper instance
func SetupViper() *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("DEPLOYD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("network", "localhost")
	v.SetDefault("timeout", "10m")
	v.SetDefault("confirmation_timeout", "2m")
	v.SetDefault("debug", false)
	v.SetDefault("json", false)
	v.SetDefault("compiler.toolchain", string(config.ToolchainFoundry))
	v.SetDefault("compiler.skip_build", false)
	v.SetDefault("ledger.driver", string(config.LedgerDriverFile))
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.shutdown_timeout", "30s")

	return v
}

// BindFlags binds the flags that were explicitly changed on the command line
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}
