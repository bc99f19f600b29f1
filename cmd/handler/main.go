package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rocjay1/ledger-entry/internal/config"
	"github.com/rocjay1/ledger-entry/internal/handler"
	"github.com/rocjay1/ledger-entry/internal/logger"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/services"
	"github.com/rocjay1/ledger-entry/internal/session"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// backend is a ledger the handlers and the asset directory can both use.
type backend interface {
	session.Ledger
	services.AssetSource
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("info")
		l.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := payload.NewBuilder(nil, cfg.LocalCurrency)
	ledger, err := newBackend(ctx, cfg, builder, log)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Backend).Msg("failed to init ledger backend")
		os.Exit(1)
	}

	assets := services.NewAssetDirectory(ledger, logger.Component(log, "assets"))
	if err := assets.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("starting without asset directory; cross-asset checks are skipped until refresh")
	}
	builder.Assets = assets

	sessions := session.NewManager(session.Deps{
		Ledger:          ledger,
		Builder:         builder,
		Logger:          logger.Component(log, "session"),
		MaxImportErrors: cfg.MaxImportErrors,
	}, cfg.SessionIdleTimeout)

	deps := &handler.Dependencies{
		Sessions:         sessions,
		Ledger:           ledger,
		Assets:           assets,
		Log:              logger.Component(log, "http"),
		ArchiveContainer: cfg.ArchiveContainer,
		ImportQueue:      cfg.ImportQueue,
		Recipients:       cfg.UserEmails,
		MaxImportErrors:  cfg.MaxImportErrors,
	}
	wireOptional(cfg, deps, log)

	go assets.Run(ctx, cfg.AssetRefreshInterval)
	go sessions.RunCleanup(ctx, time.Minute)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend).Msg("starting server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func newBackend(ctx context.Context, cfg config.Config, builder *payload.Builder, log zerolog.Logger) (backend, error) {
	if cfg.Backend == config.BackendTable {
		return services.NewTableLedger(ctx, cfg.TableServiceURL, services.TableNames{
			Transactions:  cfg.TransactionsTable,
			Assets:        cfg.AssetsTable,
			CategoryRules: cfg.CategoryRulesTable,
		}, builder, logger.Component(log, "table-ledger"))
	}

	var cred azcore.TokenCredential
	switch {
	case cfg.LedgerAPIToken != "":
		cred = services.StaticTokenCredential{Token: cfg.LedgerAPIToken}
	case cfg.LedgerAPIScope != "":
		c, err := services.NewDefaultAzureCredential(log)
		if err != nil {
			return nil, err
		}
		cred = c
	}
	return services.NewLedgerClient(cfg.LedgerAPIURL, cred, cfg.LedgerAPIScope, logger.Component(log, "ledger-api"))
}

// wireOptional attaches blob, queue and e-mail services when they are configured. A service that
// fails to start is logged and left out.
func wireOptional(cfg config.Config, deps *handler.Dependencies, log zerolog.Logger) {
	if cfg.ArchiveEnabled() {
		blob, err := services.NewBlobService(cfg.BlobServiceURL, logger.Component(log, "blob"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to init blob service (continuing without archive)")
		} else {
			deps.Blob = blob
		}
		queue, err := services.NewQueueService(cfg.QueueServiceURL, logger.Component(log, "queue"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to init queue service (continuing without archive)")
		} else {
			deps.Queue = queue
		}
	}

	if cfg.EmailEnabled() {
		email, err := services.NewEmailService(cfg.CommunicationEndpoint, cfg.SenderEmail, nil, logger.Component(log, "email"))
		if err != nil {
			log.Warn().Err(err).Msg("failed to init email service (continuing anyway)")
		} else {
			deps.Email = email
		}
	}
}
