// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendAPI   = "api"
	BackendTable = "table"
)

// Config is the process configuration.
type Config struct {
	Port     string
	LogLevel string

	Backend        string
	LedgerAPIURL   string
	LedgerAPIToken string
	LedgerAPIScope string

	TableServiceURL    string
	TransactionsTable  string
	AssetsTable        string
	CategoryRulesTable string

	BlobServiceURL   string
	ArchiveContainer string
	QueueServiceURL  string
	ImportQueue      string

	CommunicationEndpoint string
	SenderEmail           string
	UserEmails            []string

	LocalCurrency        string
	MaxImportErrors      int
	SessionIdleTimeout   time.Duration
	AssetRefreshInterval time.Duration
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv.
func LoadFrom(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:                  get("PORT", get("FUNCTIONS_CUSTOMHANDLER_PORT", "8080")),
		LogLevel:              get("LOG_LEVEL", "info"),
		Backend:               strings.ToLower(get("LEDGER_BACKEND", BackendAPI)),
		LedgerAPIURL:          get("LEDGER_API_URL", ""),
		LedgerAPIToken:        get("LEDGER_API_TOKEN", ""),
		LedgerAPIScope:        get("LEDGER_API_SCOPE", ""),
		TableServiceURL:       get("TABLE_SERVICE_URL", ""),
		TransactionsTable:     get("TRANSACTIONS_TABLE", "transactions"),
		AssetsTable:           get("ASSETS_TABLE", "assets"),
		CategoryRulesTable:    get("CATEGORY_RULES_TABLE", "categoryrules"),
		BlobServiceURL:        get("BLOB_SERVICE_URL", ""),
		ArchiveContainer:      get("IMPORT_ARCHIVE_CONTAINER", "ledger-imports"),
		QueueServiceURL:       get("QUEUE_SERVICE_URL", ""),
		ImportQueue:           get("IMPORT_QUEUE", "import-queue"),
		CommunicationEndpoint: get("COMMUNICATION_SERVICES_ENDPOINT", ""),
		SenderEmail:           get("SENDER_EMAIL", ""),
		LocalCurrency:         strings.ToUpper(get("LOCAL_CURRENCY", "KRW")),
	}

	for _, addr := range strings.Split(getenv("USER_EMAIL"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			cfg.UserEmails = append(cfg.UserEmails, addr)
		}
	}

	var err error
	if cfg.MaxImportErrors, err = strconv.Atoi(get("MAX_IMPORT_ERRORS", "20")); err != nil || cfg.MaxImportErrors < 1 {
		return Config{}, fmt.Errorf("MAX_IMPORT_ERRORS must be a positive integer")
	}
	if cfg.SessionIdleTimeout, err = time.ParseDuration(get("SESSION_IDLE_TIMEOUT", "30m")); err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %w", err)
	}
	if cfg.AssetRefreshInterval, err = time.ParseDuration(get("ASSET_REFRESH_INTERVAL", "5m")); err != nil {
		return Config{}, fmt.Errorf("invalid ASSET_REFRESH_INTERVAL: %w", err)
	}

	switch cfg.Backend {
	case BackendAPI:
		if cfg.LedgerAPIURL == "" {
			return Config{}, fmt.Errorf("LEDGER_API_URL is required for the api backend")
		}
	case BackendTable:
		if cfg.TableServiceURL == "" {
			return Config{}, fmt.Errorf("TABLE_SERVICE_URL is required for the table backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

// ArchiveEnabled reports whether uploads can be archived and processed asynchronously.
func (c Config) ArchiveEnabled() bool {
	return c.BlobServiceURL != "" && c.QueueServiceURL != ""
}

// EmailEnabled reports whether import reports can be mailed.
func (c Config) EmailEnabled() bool {
	return c.CommunicationEndpoint != "" && c.SenderEmail != "" && len(c.UserEmails) > 0
}
