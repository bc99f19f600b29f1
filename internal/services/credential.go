package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/rs/zerolog"
)

const (
	// Standard Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// isLocal reports whether a storage URL points at Azurite (plain http).
func isLocal(serviceURL string) bool {
	return strings.HasPrefix(serviceURL, "http://")
}

func getAzuriteCredentials() (string, string) {
	return azuriteAccountName, azuriteAccountKey
}

// NewDefaultAzureCredential returns the managed-identity / developer credential chain.
func NewDefaultAzureCredential(log zerolog.Logger) (azcore.TokenCredential, error) {
	log.Info().Msg("using default Azure credentials")
	return azidentity.NewDefaultAzureCredential(nil)
}

// StaticTokenCredential serves a fixed bearer token, for ledger APIs that issue personal tokens.
type StaticTokenCredential struct {
	Token string
}

func (c StaticTokenCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: c.Token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// authorize sets a bearer token from cred on req. A nil cred leaves req unauthenticated; an empty
// scope list asks for the credential's default audience.
func authorize(ctx context.Context, req *http.Request, cred azcore.TokenCredential, scopes ...string) error {
	if cred == nil {
		return nil
	}
	var opts policy.TokenRequestOptions
	for _, sc := range scopes {
		if sc != "" {
			opts.Scopes = append(opts.Scopes, sc)
		}
	}
	token, err := cred.GetToken(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	return nil
}
