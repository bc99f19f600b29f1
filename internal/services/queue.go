package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/rs/zerolog"
)

// ImportMessage is the queue notice for an archived import file.
type ImportMessage struct {
	Event     string `json:"event"`
	Container string `json:"container"`
	BlobName  string `json:"blobName"`
	Filename  string `json:"filename"`
}

const EventImportArchived = "import-archived"

// QueueService posts messages to Azure Queue Storage.
type QueueService struct {
	serviceClient *azqueue.ServiceClient
	log           zerolog.Logger
}

func NewQueueService(queueURL string, log zerolog.Logger) (*QueueService, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("queue service URL is required")
	}

	log.Info().Str("queue_url", queueURL).Msg("initializing queue service")
	var client *azqueue.ServiceClient

	if isLocal(queueURL) {
		log.Info().Msg("using Azurite shared key credentials for queue service")
		name, key := getAzuriteCredentials()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		cred, err := NewDefaultAzureCredential(log)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	log.Info().Msg("queue service initialized successfully")
	return &QueueService{serviceClient: client, log: log}, nil
}

// EncodeMessage renders message the way the Functions host expects it: base64 of its JSON.
func EncodeMessage(message any) (string, error) {
	b, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// EnqueueMessage adds message to queueName, creating the queue if needed.
func (s *QueueService) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	queueClient := s.serviceClient.NewQueueClient(queueName)

	_, err := queueClient.Create(ctx, nil)
	if err != nil && errorCode(err) != "QueueAlreadyExists" {
		s.log.Warn().Err(err).Str("queue", queueName).Msg("failed to create queue")
	}

	encoded, err := EncodeMessage(message)
	if err != nil {
		return err
	}
	if _, err := queueClient.EnqueueMessage(ctx, encoded, nil); err != nil {
		s.log.Error().Err(err).Str("queue", queueName).Msg("failed to enqueue message")
		return fmt.Errorf("failed to enqueue message to %s: %w", queueName, err)
	}

	s.log.Info().Str("queue", queueName).Msg("enqueued message")
	return nil
}
