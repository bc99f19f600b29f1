package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/rs/zerolog"
)

// entity is a table row as decoded from the service's JSON.
type entity map[string]any

func (e entity) str(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

func (e entity) integer(key string) int {
	switch v := e[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var i int
		fmt.Sscanf(v, "%d", &i)
		return i
	}
	return 0
}

// entityStore is the subset of Table Storage the ledger backend needs.
type entityStore interface {
	CreateTable(ctx context.Context, table string) error
	ListEntities(ctx context.Context, table, filter string) ([]entity, error)
	AddEntity(ctx context.Context, table string, e entity) error
	UpsertEntity(ctx context.Context, table string, e entity) error
	DeleteEntity(ctx context.Context, table, partitionKey, rowKey string) error
}

// azureTables implements entityStore on Azure Table Storage (or Azurite).
type azureTables struct {
	client *aztables.ServiceClient
}

func newAzureTables(serviceURL string, log zerolog.Logger) (*azureTables, error) {
	var client *aztables.ServiceClient

	if isLocal(serviceURL) {
		log.Info().Msg("using Azurite credentials for table service")
		name, key := getAzuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		cred, err := NewDefaultAzureCredential(log)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}
	return &azureTables{client: client}, nil
}

func errorCode(err error) string {
	var azErr *azcore.ResponseError
	if errors.As(err, &azErr) {
		return azErr.ErrorCode
	}
	return ""
}

func (t *azureTables) CreateTable(ctx context.Context, table string) error {
	_, err := t.client.CreateTable(ctx, table, nil)
	if err != nil && errorCode(err) != "TableAlreadyExists" {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (t *azureTables) ListEntities(ctx context.Context, table, filter string) ([]entity, error) {
	opts := &aztables.ListEntitiesOptions{}
	if filter != "" {
		opts.Filter = &filter
	}
	pager := t.client.NewClient(table).NewListEntitiesPager(opts)

	var out []entity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list entities in %s: %w", table, err)
		}
		for _, raw := range resp.Entities {
			var e entity
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *azureTables) AddEntity(ctx context.Context, table string, e entity) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if _, err := t.client.NewClient(table).AddEntity(ctx, b, nil); err != nil {
		if errorCode(err) == "EntityAlreadyExists" {
			return ErrConflict
		}
		return fmt.Errorf("failed to add entity to %s: %w", table, err)
	}
	return nil
}

func (t *azureTables) UpsertEntity(ctx context.Context, table string, e entity) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	_, err = t.client.NewClient(table).UpsertEntity(ctx, b, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert entity in %s: %w", table, err)
	}
	return nil
}

func (t *azureTables) DeleteEntity(ctx context.Context, table, partitionKey, rowKey string) error {
	if _, err := t.client.NewClient(table).DeleteEntity(ctx, partitionKey, rowKey, nil); err != nil {
		if errorCode(err) == "ResourceNotFound" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete entity from %s: %w", table, err)
	}
	return nil
}

// quote escapes a value for an OData filter literal.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
