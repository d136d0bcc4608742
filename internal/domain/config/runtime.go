package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string
	ConfigFile  string // deployd.toml that was loaded, empty if none

	// Default deployment target
	Contract        string
	Network         string
	ConstructorArgs []string

	// Execution settings
	Debug               bool
	JSON                bool
	Timeout             time.Duration // upper bound for a whole deployment attempt
	ConfirmationTimeout time.Duration // upper bound for waiting on the receipt

	Compiler CompilerConfig
	Ledger   LedgerConfig
	Server   ServerConfig

	// Triggers are the HTTP deploy endpoints served by `serve`
	Triggers []TriggerConfig

	// Networks are the resolved network profiles keyed by name
	Networks map[string]*Network
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	// Account is the signing credential after env expansion (a hex private key)
	Account string `json:"-"`
}

type Toolchain string

const (
	ToolchainFoundry Toolchain = "foundry"
	ToolchainHardhat Toolchain = "hardhat"
)

// CompilerConfig controls how artifacts are produced
type CompilerConfig struct {
	Toolchain    Toolchain
	SkipBuild    bool
	ArtifactsDir string // overrides out/ or artifacts/
}

type LedgerDriver string

const (
	LedgerDriverFile     LedgerDriver = "file"
	LedgerDriverPostgres LedgerDriver = "postgres"
)

// LedgerConfig selects the deployment ledger backend
type LedgerConfig struct {
	Driver      LedgerDriver
	DatabaseURL string
}

// ServerConfig holds settings shared by every HTTP trigger
type ServerConfig struct {
	Port            int
	AuthToken       string
	ShutdownTimeout time.Duration
}

// TriggerConfig is one HTTP deploy endpoint bound to a fixed request
type TriggerConfig struct {
	Port            int
	Contract        string
	Network         string
	ConstructorArgs []string
}
