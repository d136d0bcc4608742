package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

const checkTimeout = 5 * time.Second

// Checker confirms that a recorded deployment is still present on chain
type Checker struct {
	log  *slog.Logger
	dial Dialer
}

// NewChecker creates a checker that reaches the networks through dial
func NewChecker(log *slog.Logger, dial Dialer) *Checker {
	return &Checker{
		log:  log.With("component", "Checker"),
		dial: dial,
	}
}

// CheckDeployment looks up the code at the recorded address and the receipt
// of the recorded transaction. Absence is reported in the result, not as an
// error; errors mean the node could not answer.
func (c *Checker) CheckDeployment(ctx context.Context, network *config.Network, record *models.DeploymentRecord) (*models.DeploymentCheck, error) {
	d := &Deployer{log: c.log, dial: c.dial}
	client, release, _, err := d.connect(ctx, network)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	check := &models.DeploymentCheck{Key: record.Key(), Address: record.Address}

	code, err := client.CodeAt(ctx, common.HexToAddress(record.Address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check code at %s: %w", record.Address, err)
	}
	check.CodePresent = len(code) > 0
	if !check.CodePresent {
		check.Reason = "no code at address"
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(record.TransactionHash))
	switch {
	case errors.Is(err, ethereum.NotFound):
		if check.Reason == "" {
			check.Reason = "transaction not found on-chain"
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	default:
		check.TransactionFound = true
		if receipt.BlockNumber != nil {
			check.BlockNumber = receipt.BlockNumber.Uint64()
		}
	}

	c.log.Debug("checked deployment", "key", record.Key().String(), "codePresent", check.CodePresent, "txFound", check.TransactionFound)
	return check, nil
}

// Ensure the adapter implements the interface
var _ usecase.DeploymentChecker = (*Checker)(nil)
