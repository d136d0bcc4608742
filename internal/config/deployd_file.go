package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// ConfigFileName is the project configuration file looked up in the project root
const ConfigFileName = "deployd.toml"

// DeploydFile represents the raw deployd.toml structure
type DeploydFile struct {
	Contract            string   `toml:"contract"`
	Network             string   `toml:"network"`
	ConstructorArgs     []string `toml:"constructor_args"`
	Timeout             string   `toml:"timeout"`
	ConfirmationTimeout string   `toml:"confirmation_timeout"`

	Compiler struct {
		Toolchain    string `toml:"toolchain"`
		SkipBuild    *bool  `toml:"skip_build"`
		ArtifactsDir string `toml:"artifacts_dir"`
	} `toml:"compiler"`

	Ledger struct {
		Driver      string `toml:"driver"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"ledger"`

	Server struct {
		Port            int    `toml:"port"`
		AuthToken       string `toml:"auth_token"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`

	Networks map[string]NetworkProfile `toml:"networks"`
	Triggers []TriggerEntry            `toml:"triggers"`
}

// NetworkProfile is a [networks.<name>] table
type NetworkProfile struct {
	URL      string `toml:"url"`
	ChainID  uint64 `toml:"chain_id"`
	Account  string `toml:"account"`
	Explorer string `toml:"explorer"`
}

// TriggerEntry is a [[triggers]] table
type TriggerEntry struct {
	Port            int      `toml:"port"`
	Contract        string   `toml:"contract"`
	Network         string   `toml:"network"`
	ConstructorArgs []string `toml:"constructor_args"`
}

// LoadDeploydFile parses deployd.toml. Unknown keys are rejected so that
// typos in network tables do not silently fall back to defaults.
func LoadDeploydFile(path string) (*DeploydFile, error) {
	var file DeploydFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return &file, nil
}

// applyFileDefaults layers file values under flags and environment variables
func applyFileDefaults(v *viper.Viper, file *DeploydFile) {
	setString := func(key, value string) {
		if value != "" {
			v.SetDefault(key, value)
		}
	}

	setString("contract", file.Contract)
	setString("network", file.Network)
	if len(file.ConstructorArgs) > 0 {
		v.SetDefault("constructor_args", file.ConstructorArgs)
	}
	setString("timeout", file.Timeout)
	setString("confirmation_timeout", file.ConfirmationTimeout)

	setString("compiler.toolchain", file.Compiler.Toolchain)
	if file.Compiler.SkipBuild != nil {
		v.SetDefault("compiler.skip_build", *file.Compiler.SkipBuild)
	}
	setString("compiler.artifacts_dir", file.Compiler.ArtifactsDir)

	setString("ledger.driver", file.Ledger.Driver)
	setString("ledger.database_url", file.Ledger.DatabaseURL)

	if file.Server.Port != 0 {
		v.SetDefault("server.port", file.Server.Port)
	}
	setString("server.auth_token", file.Server.AuthToken)
	setString("server.shutdown_timeout", file.Server.ShutdownTimeout)
}
