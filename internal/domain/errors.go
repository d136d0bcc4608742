package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when a deployment request is malformed
	ErrInvalidRequest = errors.New("invalid deployment request")

	// ErrUnknownNetwork is returned when a network name is not in the registry
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrDuplicateChainID is returned when two network profiles share a chain ID
	ErrDuplicateChainID = errors.New("duplicate chain ID")

	// ErrCompilation is returned when the toolchain cannot produce an artifact
	ErrCompilation = errors.New("compilation failed")

	// ErrSubmission is returned when the deployment transaction could not be sent or was reverted
	ErrSubmission = errors.New("deployment submission failed")

	// ErrConfirmationTimeout is returned when the transaction is not mined in time
	ErrConfirmationTimeout = errors.New("deployment confirmation timed out")

	// ErrDuplicateDeployment is returned by the ledger when a key already has a record
	ErrDuplicateDeployment = errors.New("deployment already recorded")

	// ErrDeploymentInProgress is returned by administrative operations on a
	// key with an in-flight attempt. Deploy callers wait instead.
	ErrDeploymentInProgress = errors.New("deployment in progress")
)

// Error kinds exposed to trigger callers
const (
	KindInvalidRequest       = "InvalidRequest"
	KindUnknownNetwork       = "UnknownNetwork"
	KindCompilationError     = "CompilationError"
	KindSubmissionError      = "SubmissionError"
	KindConfirmationTimeout  = "ConfirmationTimeout"
	KindDeploymentInProgress = "DeploymentInProgress"
	KindNotFound             = "NotFound"
	KindInternalError        = "InternalError"
)

type UnknownNetworkErr struct {
	Name      string
	Available []string
}

func (e UnknownNetworkErr) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown network %q", e.Name)
	}
	return fmt.Sprintf("unknown network %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e UnknownNetworkErr) Unwrap() error {
	return ErrUnknownNetwork
}

// CompilationError carries the toolchain diagnostic for a failed build
type CompilationError struct {
	Contract string
	Output   string
	Err      error
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("failed to compile %s", e.Contract)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CompilationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompilation}
	}
	return []error{ErrCompilation, e.Err}
}

// DuplicateDeploymentError is returned by a ledger that already holds a
// record for the key. Existing is the first writer's record.
type DuplicateDeploymentError struct {
	Key      models.DeploymentKey
	Existing *models.DeploymentRecord
}

func (e *DuplicateDeploymentError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("%s already deployed at %s", e.Key, e.Existing.Address)
	}
	return fmt.Sprintf("%s already deployed", e.Key)
}

func (e *DuplicateDeploymentError) Unwrap() error {
	return ErrDuplicateDeployment
}

// ErrorKind maps an error to the kind string reported to trigger callers
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrUnknownNetwork):
		return KindUnknownNetwork
	case errors.Is(err, ErrCompilation):
		return KindCompilationError
	case errors.Is(err, ErrConfirmationTimeout):
		return KindConfirmationTimeout
	case errors.Is(err, ErrSubmission):
		return KindSubmissionError
	case errors.Is(err, ErrDeploymentInProgress):
		return KindDeploymentInProgress
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternalError
	}
}

// Retryable reports whether the caller may retry the same request.
// The key is left undeployed after these failures.
func Retryable(err error) bool {
	return errors.Is(err, ErrSubmission) || errors.Is(err, ErrConfirmationTimeout)
}
