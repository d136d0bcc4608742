package models

import (
	"fmt"
	"strings"
	"time"
)

// DeploymentStatus is the derived state of a deployment key, reported to
// trigger callers. It is never persisted.
type DeploymentStatus string

const (
	DeploymentStatusUndeployed DeploymentStatus = "UNDEPLOYED"
	DeploymentStatusPending    DeploymentStatus = "PENDING"
	DeploymentStatusSucceeded  DeploymentStatus = "SUCCEEDED"
	DeploymentStatusFailed     DeploymentStatus = "FAILED"
)

// DeploymentKey identifies a deployment slot: one contract on one network.
type DeploymentKey struct {
	ContractName string `json:"contractName"`
	NetworkName  string `json:"networkName"`
}

// String returns the ledger key, e.g. "Registry/shibuya".
func (k DeploymentKey) String() string {
	return k.ContractName + "/" + k.NetworkName
}

// ParseDeploymentKey parses a "Contract/network" key.
func ParseDeploymentKey(s string) (DeploymentKey, error) {
	contract, network, ok := strings.Cut(s, "/")
	if !ok || contract == "" || network == "" {
		return DeploymentKey{}, fmt.Errorf("invalid deployment key %q, expected <contract>/<network>", s)
	}
	return DeploymentKey{ContractName: contract, NetworkName: network}, nil
}

// DeploymentRequest is the intent "deploy contract X to network Y".
// Created per trigger invocation and never persisted.
type DeploymentRequest struct {
	ContractName    string
	NetworkName     string
	ConstructorArgs []any
}

// NewDeploymentRequest builds a request from textual constructor
// arguments, as read from flags and configuration.
func NewDeploymentRequest(contract, network string, args []string) DeploymentRequest {
	req := DeploymentRequest{ContractName: contract, NetworkName: network}
	if len(args) > 0 {
		req.ConstructorArgs = make([]any, len(args))
		for i, a := range args {
			req.ConstructorArgs[i] = a
		}
	}
	return req
}

// Key returns the deployment slot this request targets.
func (r DeploymentRequest) Key() DeploymentKey {
	return DeploymentKey{ContractName: r.ContractName, NetworkName: r.NetworkName}
}

// DeploymentRecord is the ledger entry written once per key on the first
// successful deployment.
type DeploymentRecord struct {
	ContractName    string    `json:"contractName"`
	NetworkName     string    `json:"networkName"`
	ChainID         uint64    `json:"chainId"`
	Address         string    `json:"address"`
	BytecodeHash    string    `json:"bytecodeHash"`
	TransactionHash string    `json:"transactionHash"`
	Deployer        string    `json:"deployer,omitempty"`
	BlockNumber     uint64    `json:"blockNumber,omitempty"`
	DeployedAt      time.Time `json:"deployedAt"`
}

// Key returns the deployment slot of the record.
func (r *DeploymentRecord) Key() DeploymentKey {
	return DeploymentKey{ContractName: r.ContractName, NetworkName: r.NetworkName}
}

// Validate checks that the record carries everything the ledger requires.
func (r *DeploymentRecord) Validate() error {
	switch {
	case r.ContractName == "":
		return fmt.Errorf("contract name is required")
	case r.NetworkName == "":
		return fmt.Errorf("network name is required")
	case r.Address == "":
		return fmt.Errorf("address is required")
	case r.TransactionHash == "":
		return fmt.Errorf("transaction hash is required")
	}
	return nil
}

// RetiredDeployment is a record moved out of the current pointer by an
// administrative reset. History is append-only.
type RetiredDeployment struct {
	DeploymentRecord
	RetiredAt time.Time `json:"retiredAt"`
	Reason    string    `json:"reason,omitempty"`
}

// SubmissionResult is what the chain returns for a confirmed deployment.
type SubmissionResult struct {
	Address         string
	TransactionHash string
	Deployer        string
	BlockNumber     uint64
}

// DeploymentCheck is the on-chain state of a recorded deployment
type DeploymentCheck struct {
	Key              DeploymentKey `json:"key"`
	Address          string        `json:"address"`
	CodePresent      bool          `json:"codePresent"`
	TransactionFound bool          `json:"transactionFound"`
	BlockNumber      uint64        `json:"blockNumber,omitempty"`
	Reason           string        `json:"reason,omitempty"`
}

// Live reports whether the recorded contract is still on chain
func (c *DeploymentCheck) Live() bool {
	return c.CodePresent && c.TransactionFound
}
