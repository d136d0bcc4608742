package domain

// DeploymentFilter defines filtering options for ledger listings.
// Empty fields match everything.
type DeploymentFilter struct {
	ContractName string
	NetworkName  string
}
