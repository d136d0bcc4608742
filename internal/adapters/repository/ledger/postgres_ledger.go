package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trebuchet-org/treb-deployd/internal/domain"
	"github.com/trebuchet-org/treb-deployd/internal/domain/models"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS deployments (
	contract_name    TEXT        NOT NULL,
	network_name     TEXT        NOT NULL,
	chain_id         BIGINT      NOT NULL,
	address          TEXT        NOT NULL,
	bytecode_hash    TEXT        NOT NULL,
	transaction_hash TEXT        NOT NULL,
	deployer         TEXT        NOT NULL DEFAULT '',
	block_number     BIGINT      NOT NULL DEFAULT 0,
	deployed_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (contract_name, network_name)
);

CREATE TABLE IF NOT EXISTS deployment_history (
	id               BIGSERIAL   PRIMARY KEY,
	contract_name    TEXT        NOT NULL,
	network_name     TEXT        NOT NULL,
	chain_id         BIGINT      NOT NULL,
	address          TEXT        NOT NULL,
	bytecode_hash    TEXT        NOT NULL,
	transaction_hash TEXT        NOT NULL,
	deployer         TEXT        NOT NULL DEFAULT '',
	block_number     BIGINT      NOT NULL DEFAULT 0,
	deployed_at      TIMESTAMPTZ NOT NULL,
	retired_at       TIMESTAMPTZ NOT NULL,
	reason           TEXT        NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS deployment_history_key_idx
	ON deployment_history (contract_name, network_name);
`

const recordColumns = `contract_name, network_name, chain_id, address, bytecode_hash,
	transaction_hash, deployer, block_number, deployed_at`

// PostgresLedger stores deployment records in PostgreSQL. The primary key
// on (contract_name, network_name) makes Record a compare-and-set across
// every process sharing the database.
type PostgresLedger struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresLedger connects to databaseURL and ensures the schema exists
func NewPostgresLedger(ctx context.Context, databaseURL string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &PostgresLedger{
		pool: pool,
		now:  time.Now,
	}, nil
}

// Close releases the connection pool
func (l *PostgresLedger) Close() {
	l.pool.Close()
}

func (l *PostgresLedger) Lookup(ctx context.Context, key models.DeploymentKey) (*models.DeploymentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM deployments WHERE contract_name = $1 AND network_name = $2`

	record, err := scanRecord(l.pool.QueryRow(ctx, query, key.ContractName, key.NetworkName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up deployment %s: %w", key, err)
	}
	return record, nil
}

func (l *PostgresLedger) Record(ctx context.Context, record *models.DeploymentRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid deployment record: %w", err)
	}

	query := `
		INSERT INTO deployments (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (contract_name, network_name) DO NOTHING
	`

	tag, err := l.pool.Exec(ctx, query,
		record.ContractName,
		record.NetworkName,
		int64(record.ChainID),
		record.Address,
		record.BytecodeHash,
		record.TransactionHash,
		record.Deployer,
		int64(record.BlockNumber),
		record.DeployedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save deployment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := l.Lookup(ctx, record.Key())
		if err != nil {
			return err
		}
		return &domain.DuplicateDeploymentError{Key: record.Key(), Existing: existing}
	}

	return nil
}

func (l *PostgresLedger) List(ctx context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM deployments
		WHERE ($1 = '' OR contract_name = $1) AND ($2 = '' OR network_name = $2)
		ORDER BY network_name, contract_name
	`

	rows, err := l.pool.Query(ctx, query, filter.ContractName, filter.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	records := []*models.DeploymentRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deployments: %w", err)
	}

	return records, nil
}

func (l *PostgresLedger) Retire(ctx context.Context, key models.DeploymentKey, reason string) (*models.RetiredDeployment, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM deployments WHERE contract_name = $1 AND network_name = $2 RETURNING ` + recordColumns
	record, err := scanRecord(tx.QueryRow(ctx, query, key.ContractName, key.NetworkName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no recorded deployment of %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove deployment %s: %w", key, err)
	}

	retired := &models.RetiredDeployment{
		DeploymentRecord: *record,
		RetiredAt:        l.now().UTC(),
		Reason:           reason,
	}

	insert := `
		INSERT INTO deployment_history (` + recordColumns + `, retired_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, insert,
		record.ContractName,
		record.NetworkName,
		int64(record.ChainID),
		record.Address,
		record.BytecodeHash,
		record.TransactionHash,
		record.Deployer,
		int64(record.BlockNumber),
		record.DeployedAt,
		retired.RetiredAt,
		retired.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive deployment %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return retired, nil
}

func (l *PostgresLedger) History(ctx context.Context, key models.DeploymentKey) ([]*models.RetiredDeployment, error) {
	query := `
		SELECT ` + recordColumns + `, retired_at, reason
		FROM deployment_history
		WHERE contract_name = $1 AND network_name = $2
		ORDER BY id
	`

	rows, err := l.pool.Query(ctx, query, key.ContractName, key.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %s: %w", key, err)
	}
	defer rows.Close()

	history := []*models.RetiredDeployment{}
	for rows.Next() {
		var (
			entry       models.RetiredDeployment
			chainID     int64
			blockNumber int64
		)
		err := rows.Scan(
			&entry.ContractName,
			&entry.NetworkName,
			&chainID,
			&entry.Address,
			&entry.BytecodeHash,
			&entry.TransactionHash,
			&entry.Deployer,
			&blockNumber,
			&entry.DeployedAt,
			&entry.RetiredAt,
			&entry.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.ChainID = uint64(chainID)
		entry.BlockNumber = uint64(blockNumber)
		history = append(history, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}

func scanRecord(row pgx.Row) (*models.DeploymentRecord, error) {
	var (
		record      models.DeploymentRecord
		chainID     int64
		blockNumber int64
	)
	err := row.Scan(
		&record.ContractName,
		&record.NetworkName,
		&chainID,
		&record.Address,
		&record.BytecodeHash,
		&record.TransactionHash,
		&record.Deployer,
		&blockNumber,
		&record.DeployedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ChainID = uint64(chainID)
	record.BlockNumber = uint64(blockNumber)
	record.DeployedAt = record.DeployedAt.UTC()
	return &record, nil
}

var _ usecase.DeploymentLedger = (*PostgresLedger)(nil)
