package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/rs/zerolog"

	"github.com/rocjay1/ledger-entry/internal/models"
)

const (
	communicationScope = "https://communication.azure.com//.default"
	emailAPIVersion    = "2023-03-31"
)

// Mail is one outgoing message. Text is optional and sent as the plain-text alternative.
type Mail struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// EmailService delivers import reports through the Azure Communication Services e-mail API.
type EmailService struct {
	sendURL    string
	sender     string
	cred       azcore.TokenCredential
	httpClient *http.Client
	log        zerolog.Logger
}

// NewEmailService creates an EmailService. A nil cred falls back to DefaultAzureCredential.
func NewEmailService(endpoint, sender string, cred azcore.TokenCredential, log zerolog.Logger) (*EmailService, error) {
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("communication services endpoint is required")
	case sender == "":
		return nil, fmt.Errorf("sender e-mail is required")
	}
	if cred == nil {
		c, err := NewDefaultAzureCredential(log)
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		cred = c
	}
	return &EmailService{
		sendURL:    strings.TrimRight(endpoint, "/") + "/emails:send?api-version=" + emailAPIVersion,
		sender:     sender,
		cred:       cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}, nil
}

type emailAddress struct {
	Address string `json:"address"`
}

type emailPayload struct {
	SenderAddress string `json:"senderAddress"`
	Content       struct {
		Subject   string `json:"subject"`
		HTML      string `json:"html"`
		PlainText string `json:"plainText,omitempty"`
	} `json:"content"`
	Recipients struct {
		To []emailAddress `json:"to"`
	} `json:"recipients"`
}

func (s *EmailService) payload(m Mail) emailPayload {
	var p emailPayload
	p.SenderAddress = s.sender
	p.Content.Subject = m.Subject
	p.Content.HTML = m.HTML
	p.Content.PlainText = m.Text
	for _, addr := range m.To {
		p.Recipients.To = append(p.Recipients.To, emailAddress{Address: addr})
	}
	return p
}

// Send queues m for delivery. The service answers 202 once the message is accepted.
func (s *EmailService) Send(ctx context.Context, m Mail) error {
	if len(m.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	body, err := json.Marshal(s.payload(m))
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := authorize(ctx, req, s.cred, communicationScope); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	s.log.Info().Strs("recipients", m.To).Str("subject", m.Subject).Str("operation_id", resp.Header.Get("Operation-Id")).
		Msg("email accepted")
	return nil
}

// SendImportReport mails the report of an import.
func (s *EmailService) SendImportReport(ctx context.Context, recipients []string, report models.ImportReport) error {
	return s.Send(ctx, Mail{
		To:      recipients,
		Subject: ImportReportSubject(report),
		HTML:    RenderImportReport(report),
		Text:    RenderImportReportText(report),
	})
}
