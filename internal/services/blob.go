package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BlobService archives import files in Azure Blob Storage.
type BlobService struct {
	client *azblob.Client
	log    zerolog.Logger
}

// NewBlobService connects to the blob endpoint at blobURL.
func NewBlobService(blobURL string, log zerolog.Logger) (*BlobService, error) {
	if blobURL == "" {
		return nil, fmt.Errorf("blob service URL is required")
	}

	log.Info().Str("blob_url", blobURL).Msg("initializing blob service")
	var client *azblob.Client

	if isLocal(blobURL) {
		log.Info().Msg("using Azurite shared key credentials for blob service")
		name, key := getAzuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := NewDefaultAzureCredential(log)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	log.Info().Msg("blob service initialized successfully")
	return &BlobService{client: client, log: log}, nil
}

// ArchiveName is the blob name an import file is stored under: imports/<date>/<uuid>-<filename>.
func ArchiveName(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "import.csv"
	}
	return fmt.Sprintf("imports/%s/%s-%s", now.UTC().Format("2006-01-02"), uuid.NewString(), base)
}

// UploadBytes stores content under containerName/blobName, creating the container if needed.
func (s *BlobService) UploadBytes(ctx context.Context, containerName, blobName string, content []byte) error {
	s.log.Info().Str("container", containerName).Str("blob_name", blobName).Int("size_bytes", len(content)).
		Msg("uploading blob")
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && errorCode(err) != "ContainerAlreadyExists" {
		s.log.Warn().Err(err).Str("container", containerName).Msg("failed to create container")
	}

	if _, err := s.client.UploadBuffer(ctx, containerName, blobName, content, nil); err != nil {
		s.log.Error().Err(err).Str("container", containerName).Str("blob_name", blobName).Msg("failed to upload blob")
		return fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}
	return nil
}

// DownloadBytes reads a whole blob.
func (s *BlobService) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, error) {
	s.log.Info().Str("container", containerName).Str("blob_name", blobName).Msg("downloading blob")
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if errorCode(err) == "BlobNotFound" {
			return nil, fmt.Errorf("blob %s/%s: %w", containerName, blobName, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}
	s.log.Debug().Str("blob_name", blobName).Int("size_bytes", len(data)).Msg("downloaded blob")
	return data, nil
}
