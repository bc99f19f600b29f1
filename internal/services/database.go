package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/csvparse"
	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/payload"
	"github.com/rocjay1/ledger-entry/internal/schema"
)

const rulesPartition = "RULES"

// TableNames are the Table Storage tables backing a TableLedger.
type TableNames struct {
	Transactions  string
	Assets        string
	CategoryRules string
}

func (n TableNames) withDefaults() TableNames {
	if n.Transactions == "" {
		n.Transactions = "transactions"
	}
	if n.Assets == "" {
		n.Assets = "assets"
	}
	if n.CategoryRules == "" {
		n.CategoryRules = "categoryrules"
	}
	return n
}

// TableLedger is a self-hosted ledger backend on Azure Table Storage. Transactions are
// partitioned by asset id and keyed by transaction id.
type TableLedger struct {
	store   entityStore
	tables  TableNames
	builder *payload.Builder
	log     zerolog.Logger
	now     func() time.Time
}

// NewTableLedger connects to the table service at serviceURL and makes sure the tables exist.
// builder validates imported rows.
func NewTableLedger(ctx context.Context, serviceURL string, tables TableNames, builder *payload.Builder, log zerolog.Logger) (*TableLedger, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("table service URL is required")
	}
	store, err := newAzureTables(serviceURL, log)
	if err != nil {
		return nil, err
	}
	l := newTableLedger(store, tables, builder, log)
	if err := l.CreateTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Str("table_url", serviceURL).Str("transactions_table", l.tables.Transactions).
		Str("assets_table", l.tables.Assets).Str("rules_table", l.tables.CategoryRules).
		Msg("table ledger initialized successfully")
	return l, nil
}

func newTableLedger(store entityStore, tables TableNames, builder *payload.Builder, log zerolog.Logger) *TableLedger {
	if builder == nil {
		builder = &payload.Builder{}
	}
	return &TableLedger{
		store:   store,
		tables:  tables.withDefaults(),
		builder: builder,
		log:     log,
		now:     time.Now,
	}
}

// CreateTables ensures every table exists.
func (l *TableLedger) CreateTables(ctx context.Context) error {
	for _, name := range []string{l.tables.Transactions, l.tables.Assets, l.tables.CategoryRules} {
		if err := l.store.CreateTable(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return &APIError{StatusCode: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func transactionEntity(tx models.Transaction, createdAt time.Time) (entity, error) {
	rec, err := json.Marshal(tx.TransactionRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	e := entity{
		"PartitionKey": tx.AssetID,
		"RowKey":       tx.ID,
		"Kind":         tx.Kind.String(),
		"Date":         tx.Date.UTC().Format(time.RFC3339),
		"Record":       string(rec),
		"CreatedAt":    createdAt.UTC().Format(time.RFC3339),
	}
	if tx.ExternalID != "" {
		e["ExternalID"] = tx.ExternalID
	}
	return e, nil
}

func parseTransaction(e entity) (models.Transaction, error) {
	var rec models.TransactionRecord
	if err := json.Unmarshal([]byte(e.str("Record")), &rec); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to decode transaction %s: %w", e.str("RowKey"), err)
	}
	rec.AssetID = e.str("PartitionKey")
	return models.Transaction{ID: e.str("RowKey"), ExternalID: e.str("ExternalID"), TransactionRecord: rec}, nil
}

// CreateTransaction stores a new record. A trade without an explicit cash leg gets one resolved
// from the assets table when exactly one candidate exists.
func (l *TableLedger) CreateTransaction(ctx context.Context, rec models.TransactionRecord) (models.Transaction, error) {
	return l.create(ctx, rec, "")
}

func (l *TableLedger) create(ctx context.Context, rec models.TransactionRecord, externalID string) (models.Transaction, error) {
	if rec.AssetID == "" {
		return models.Transaction{}, badRequest("assetId is required")
	}
	if !rec.Kind.Valid() {
		return models.Transaction{}, badRequest("kind is required")
	}
	if rec.Quantity == nil {
		return models.Transaction{}, badRequest("quantity is required")
	}
	if l.builder.Registry().HasBehavior(schema.CashCounterLeg, rec.Kind) {
		if _, ok := rec.Extras[models.ExtraCashAssetID]; !ok {
			if cash, err := l.resolveCashLeg(ctx, rec.AssetID); err != nil {
				l.log.Warn().Err(err).Str("asset_id", rec.AssetID).Msg("failed to resolve cash leg")
			} else if cash != "" {
				extras := map[string]any{models.ExtraCashAssetID: cash}
				for k, v := range rec.Extras {
					extras[k] = v
				}
				rec.Extras = extras
			}
		}
	}

	tx := models.Transaction{ID: uuid.NewString(), ExternalID: externalID, TransactionRecord: rec}
	e, err := transactionEntity(tx, l.now())
	if err != nil {
		return models.Transaction{}, err
	}
	if err := l.store.AddEntity(ctx, l.tables.Transactions, e); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}
	l.log.Info().Str("transaction_id", tx.ID).Str("asset_id", tx.AssetID).Str("kind", tx.Kind.String()).
		Msg("transaction created")
	return tx, nil
}

// resolveCashLeg returns the only other asset sharing the account and currency of assetID.
func (l *TableLedger) resolveCashLeg(ctx context.Context, assetID string) (string, error) {
	assets, err := l.ListAssets(ctx)
	if err != nil {
		return "", err
	}
	idx := models.NewAssetIndex(assets)
	primary, ok := idx.LookupAsset(assetID)
	if !ok {
		return "", nil
	}
	var candidates []string
	for _, a := range assets {
		if a.ID != primary.ID && a.AccountID == primary.AccountID && a.Currency == primary.Currency {
			candidates = append(candidates, a.ID)
		}
	}
	if len(candidates) != 1 {
		return "", nil
	}
	return candidates[0], nil
}

func (l *TableLedger) find(ctx context.Context, id string) (entity, error) {
	entities, err := l.store.ListEntities(ctx, l.tables.Transactions, "RowKey eq "+quote(id))
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Detail: fmt.Sprintf("transaction %s not found", id)}
	}
	return entities[0], nil
}

// applyEdit replaces the mutable part of existing with edit. The amounts, asset and counter leg
// are kept, and the stored quantity is re-signed when the kind changes. Extras of edit are
// layered over the stored ones.
func (l *TableLedger) applyEdit(existing, edit models.TransactionRecord) models.TransactionRecord {
	out := existing
	out.Kind = edit.Kind
	out.Date = edit.Date
	out.Description = edit.Description
	out.Memo = edit.Memo
	out.CategoryID = edit.CategoryID
	out.RelatedTransactionID = edit.RelatedTransactionID
	if existing.Quantity != nil && edit.Kind != existing.Kind {
		q := l.builder.Normalize(edit.Kind, *existing.Quantity)
		out.Quantity = &q
	}
	if len(edit.Extras) > 0 {
		extras := make(map[string]any, len(existing.Extras)+len(edit.Extras))
		for k, v := range existing.Extras {
			extras[k] = v
		}
		for k, v := range edit.Extras {
			extras[k] = v
		}
		out.Extras = extras
	}
	return out
}

func (l *TableLedger) UpdateTransaction(ctx context.Context, id string, rec models.TransactionRecord) (models.Transaction, error) {
	if !rec.Kind.Valid() {
		return models.Transaction{}, badRequest("kind is required")
	}
	e, err := l.find(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	tx, err := parseTransaction(e)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.TransactionRecord = l.applyEdit(tx.TransactionRecord, rec)

	updated, err := transactionEntity(tx, l.now())
	if err != nil {
		return models.Transaction{}, err
	}
	if created := e.str("CreatedAt"); created != "" {
		updated["CreatedAt"] = created
	}
	updated["UpdatedAt"] = l.now().UTC().Format(time.RFC3339)
	if err := l.store.UpsertEntity(ctx, l.tables.Transactions, updated); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}
	l.log.Info().Str("transaction_id", id).Msg("transaction updated")
	return tx, nil
}

func (l *TableLedger) DeleteTransaction(ctx context.Context, id string) error {
	e, err := l.find(ctx, id)
	if err != nil {
		return err
	}
	if err := l.store.DeleteEntity(ctx, l.tables.Transactions, e.str("PartitionKey"), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &APIError{StatusCode: http.StatusNotFound, Detail: fmt.Sprintf("transaction %s not found", id)}
		}
		return err
	}
	l.log.Info().Str("transaction_id", id).Msg("transaction deleted")
	return nil
}

func (l *TableLedger) externalIDExists(ctx context.Context, externalID string) (bool, error) {
	entities, err := l.store.ListEntities(ctx, l.tables.Transactions, "ExternalID eq "+quote(externalID))
	if err != nil {
		return false, err
	}
	return len(entities) > 0, nil
}

// ImportTransactions parses a CSV and stores every valid row independently. Rows whose external
// id is already stored, or repeated within the file, are skipped.
func (l *TableLedger) ImportTransactions(ctx context.Context, filename string, content []byte) (models.ImportResponse, error) {
	rows, rowErrs := csvparse.ParseImportCSV(string(content))
	if len(rowErrs) == 1 && rowErrs[0].Row <= 1 && len(rows) == 0 {
		return models.ImportResponse{}, badRequest("%s: %s", filename, rowErrs[0].Error)
	}

	outcomes := make([]models.RowOutcome, 0, len(rows)+len(rowErrs))
	for _, re := range rowErrs {
		outcomes = append(outcomes, models.RowOutcome{Row: re.Row, Status: models.RowFailed, Error: re.Error})
	}

	seen := map[string]bool{}
	for _, row := range rows {
		outcome, err := l.importRow(ctx, row, seen)
		if err != nil {
			return models.ImportResponse{}, err
		}
		outcomes = append(outcomes, outcome)
	}

	resp := Tally(outcomes)
	l.log.Info().Str("filename", filename).Int("created", resp.Created).Int("skipped", resp.Skipped).
		Int("failed", resp.Failed).Msg("import processed")
	return resp, nil
}

// importRow returns an error only for storage failures, which abort the import.
func (l *TableLedger) importRow(ctx context.Context, row csvparse.ImportRow, seen map[string]bool) (models.RowOutcome, error) {
	out := models.RowOutcome{Row: row.Line}

	rec, err := l.builder.Build(row.Kind, "", row.Fields, payload.ModeCreate)
	if err != nil {
		out.Status, out.Error = models.RowFailed, err.Error()
		return out, nil
	}

	if row.ExternalID != "" {
		if seen[row.ExternalID] {
			out.Status = models.RowSkipped
			return out, nil
		}
		seen[row.ExternalID] = true
		exists, err := l.externalIDExists(ctx, row.ExternalID)
		if err != nil {
			return out, err
		}
		if exists {
			out.Status = models.RowSkipped
			return out, nil
		}
	}

	if _, err := l.create(ctx, rec, row.ExternalID); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			out.Status, out.Error = models.RowFailed, apiErr.Detail
			return out, nil
		}
		return out, err
	}
	out.Status = models.RowCreated
	return out, nil
}

// SuggestCategory matches description against the category rules table.
func (l *TableLedger) SuggestCategory(ctx context.Context, req models.SuggestionRequest) (models.SuggestionResponse, error) {
	rules, err := l.ListCategoryRules(ctx)
	if err != nil {
		return models.SuggestionResponse{}, err
	}
	return MatchCategory(rules, req.Description), nil
}

// ListCategoryRules reads the rules table. Patterns are stored as a JSON array or "|"-separated.
func (l *TableLedger) ListCategoryRules(ctx context.Context) ([]models.CategoryRule, error) {
	entities, err := l.store.ListEntities(ctx, l.tables.CategoryRules, "PartitionKey eq "+quote(rulesPartition))
	if err != nil {
		return nil, err
	}
	rules := make([]models.CategoryRule, 0, len(entities))
	for _, e := range entities {
		rules = append(rules, models.CategoryRule{
			ID:         e.str("RowKey"),
			CategoryID: e.str("CategoryID"),
			Patterns:   splitPatterns(e.str("Patterns")),
			Priority:   e.integer("Priority"),
		})
	}
	return rules, nil
}

// SaveCategoryRule upserts a rule.
func (l *TableLedger) SaveCategoryRule(ctx context.Context, rule models.CategoryRule) error {
	patterns, err := json.Marshal(rule.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	return l.store.UpsertEntity(ctx, l.tables.CategoryRules, entity{
		"PartitionKey": rulesPartition,
		"RowKey":       rule.ID,
		"CategoryID":   rule.CategoryID,
		"Patterns":     string(patterns),
		"Priority":     rule.Priority,
	})
}

func splitPatterns(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var patterns []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &patterns) == nil {
		return patterns
	}
	return strings.Split(s, "|")
}

// ListAssets reads the assets table. The partition key is the account id.
func (l *TableLedger) ListAssets(ctx context.Context) ([]models.Asset, error) {
	entities, err := l.store.ListEntities(ctx, l.tables.Assets, "")
	if err != nil {
		return nil, err
	}
	assets := make([]models.Asset, 0, len(entities))
	for _, e := range entities {
		assets = append(assets, models.Asset{
			ID:        e.str("RowKey"),
			AccountID: e.str("PartitionKey"),
			Name:      e.str("Name"),
			Currency:  e.str("Currency"),
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

// SaveAsset upserts an asset.
func (l *TableLedger) SaveAsset(ctx context.Context, a models.Asset) error {
	return l.store.UpsertEntity(ctx, l.tables.Assets, entity{
		"PartitionKey": a.AccountID,
		"RowKey":       a.ID,
		"Name":         a.Name,
		"Currency":     a.Currency,
	})
}
