package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

// Backend is the subset of an Ethereum client the deployer needs
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ethereum.ChainIDReader
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Dialer opens a Backend for an RPC URL. The returned func releases it.
type Dialer func(ctx context.Context, rpcURL string) (Backend, func(), error)

// DialRPC connects to a node over JSON-RPC
func DialRPC(ctx context.Context, rpcURL string) (Backend, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// Deployer sends contract creation transactions and waits for their receipts
type Deployer struct {
	log                 *slog.Logger
	dial                Dialer
	confirmationTimeout time.Duration
}

// NewDeployer creates a deployer that reaches the networks through dial
func NewDeployer(cfg *config.RuntimeConfig, log *slog.Logger, dial Dialer) *Deployer {
	return &Deployer{
		log:                 log.With("component", "Deployer"),
		dial:                dial,
		confirmationTimeout: cfg.ConfirmationTimeout,
	}
}

// SubmitDeployment deploys the artifact and waits for a successful receipt
func (d *Deployer) SubmitDeployment(ctx context.Context, network *config.Network, artifact *models.Artifact, args []any) (*models.SubmissionResult, error) {
	key, err := privateKey(network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	ctorArgs, err := ConvertArgs(artifact.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	client, release, chainID, err := d.connect(ctx, network)
	if err != nil {
		return nil, err
	}
	defer release()

	from := crypto.PubkeyToAddress(key.PublicKey)
	log := d.log.With("network", network.Name, "deployer", from.Hex())
	d.logBalance(ctx, log, client, from)

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create transactor: %w", domain.ErrSubmission, err)
	}
	auth.Context = ctx

	address, tx, _, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, client, ctorArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	log.With("address", address.Hex()).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	waitCtx := ctx
	if d.confirmationTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.confirmationTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, client, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: transaction %s not mined in time", domain.ErrConfirmationTimeout, tx.Hash().Hex())
		}
		return nil, fmt.Errorf("%w: failed to wait for transaction %s: %w", domain.ErrSubmission, tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: contract deployment reverted in transaction %s", domain.ErrSubmission, tx.Hash().Hex())
	}

	if receipt.ContractAddress != (common.Address{}) {
		address = receipt.ContractAddress
	}

	result := &models.SubmissionResult{
		Address:         address.Hex(),
		TransactionHash: tx.Hash().Hex(),
		Deployer:        from.Hex(),
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

// Account reports the signing account of a network. The address is
// derived offline; the balance needs a reachable node.
func (d *Deployer) Account(ctx context.Context, network *config.Network) (*models.AccountInfo, error) {
	key, err := privateKey(network)
	if err != nil {
		return nil, err
	}

	info := &models.AccountInfo{
		Network: network.Name,
		ChainID: network.ChainID,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}

	client, release, _, err := d.connect(ctx, network)
	if err != nil {
		info.BalanceErr = err.Error()
		return info, nil
	}
	defer release()

	balance, err := client.BalanceAt(ctx, common.HexToAddress(info.Address), nil)
	if err != nil {
		info.BalanceErr = err.Error()
		return info, nil
	}
	info.Balance = balance
	return info, nil
}

// connect dials the network and checks that the node serves the expected chain
func (d *Deployer) connect(ctx context.Context, network *config.Network) (Backend, func(), *big.Int, error) {
	client, release, err := d.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to connect to %s: %w", domain.ErrSubmission, network.Name, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("%w: failed to get chain ID: %w", domain.ErrSubmission, err)
	}
	if chainID.Uint64() != network.ChainID {
		release()
		return nil, nil, nil, fmt.Errorf("%w: chain ID mismatch on %s: expected %d, got %d",
			domain.ErrSubmission, network.Name, network.ChainID, chainID.Uint64())
	}

	return client, release, chainID, nil
}

func (d *Deployer) logBalance(ctx context.Context, log *slog.Logger, client Backend, from common.Address) {
	balance, err := client.BalanceAt(ctx, from, nil)
	if err != nil {
		log.Warn("could not fetch deployer balance", "error", err)
		return
	}
	log.Info("deployer account", "balance", formatEther(balance))
}

func privateKey(network *config.Network) (*ecdsa.PrivateKey, error) {
	account := strings.TrimSpace(network.Account)
	if account == "" || strings.HasPrefix(account, "${") {
		return nil, fmt.Errorf("no deployer key configured for network %s", network.Name)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(account, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid deployer key for network %s: %w", network.Name, err)
	}
	return key, nil
}

// formatEther renders a wei amount in ether with 6 decimals
func formatEther(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 6)
}

var (
	_ usecase.ChainClient      = (*Deployer)(nil)
	_ usecase.AccountInspector = (*Deployer)(nil)
)
