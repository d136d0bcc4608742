package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-deployd/internal/domain/config"
	"github.com/trebuchet-org/treb-deployd/internal/usecase"
)

const connectTimeout = 10 * time.Second

// ProvideLedger opens the ledger backend selected by the runtime config
func ProvideLedger(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.DeploymentLedger, func(), error) {
	switch cfg.Ledger.Driver {
	case config.LedgerDriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		l, err := NewPostgresLedger(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("using postgres ledger")
		return l, l.Close, nil

	case config.LedgerDriverFile, "":
		l, err := NewFileLedger(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("using file ledger", "path", l.Path())
		return l, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported ledger driver %q", cfg.Ledger.Driver)
	}
}
