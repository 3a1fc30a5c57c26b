package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"folio/internal/models"
	"folio/internal/queue"
)

// JobTypeContactEmail is the queue job type for contact-form notifications
const JobTypeContactEmail = "contact_email"

// MailerService sends email through the SendGrid v3 API. Sends always go
// through the job queue so the HTTP response that triggered them never waits
// on delivery. Missing credentials disable sending with a warning, not an
// error.
type MailerService struct {
	apiKey     string
	from       string
	to         string
	httpClient *http.Client
}

// NewMailerService creates a mailer. Empty apiKey or to means notifications
// are disabled.
func NewMailerService(apiKey, from, to string) *MailerService {
	if apiKey == "" || to == "" {
		log.Println("⚠️  SendGrid not configured, contact notifications disabled")
	}
	return &MailerService{
		apiKey: apiKey,
		from:   from,
		to:     to,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether outbound email is configured
func (s *MailerService) Enabled() bool {
	return s.apiKey != "" && s.to != ""
}

// RegisterHandlers binds the mailer's job handlers to the queue
func (s *MailerService) RegisterHandlers(q *queue.Queue) {
	q.Register(JobTypeContactEmail, s.handleContactEmail)
}

func (s *MailerService) handleContactEmail(ctx context.Context, payload json.RawMessage) error {
	var msg models.ContactMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed contact email job: %w", err)
	}

	subject := msg.Subject
	if subject == "" {
		subject = "New contact form message"
	}

	html := fmt.Sprintf(
		"<p><strong>From:</strong> %s &lt;%s&gt;</p><p>%s</p>",
		msg.Name, msg.Email, msg.Message,
	)

	return s.send(ctx, subject, html, msg.Email)
}

// sendGridPayload is the minimal SendGrid v3 mail/send request body
type sendGridPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmail             `json:"from"`
	ReplyTo          *sendGridEmail            `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To []sendGridEmail `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridEmail struct {
	Email string `json:"email"`
}

func (s *MailerService) send(ctx context.Context, subject, html, replyTo string) error {
	if !s.Enabled() {
		return errors.New("mailer not configured")
	}

	payload := sendGridPayload{
		Personalizations: []sendGridPersonalization{{To: []sendGridEmail{{Email: s.to}}}},
		From:             sendGridEmail{Email: s.from},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/html", Value: html}},
	}
	if replyTo != "" {
		payload.ReplyTo = &sendGridEmail{Email: replyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.sendgrid.com/v3/mail/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build SendGrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("SendGrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("SendGrid returned status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("📧 [MAIL] Sent %q to %s", subject, s.to)
	return nil
}
