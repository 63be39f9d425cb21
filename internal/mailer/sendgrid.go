package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultSendGridURL = "https://api.sendgrid.com"

type SendGridClient struct {
	apiKey     string
	fromEmail  string
	fromName   string
	baseURL    string
	httpClient *http.Client
}

type SendGridOption func(*SendGridClient)

func WithHTTPClient(c *http.Client) SendGridOption {
	return func(cl *SendGridClient) {
		cl.httpClient = c
	}
}

func WithBaseURL(baseURL string) SendGridOption {
	return func(cl *SendGridClient) {
		if baseURL != "" {
			cl.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func NewSendGridClient(apiKey, fromEmail, fromName string, opts ...SendGridOption) *SendGridClient {
	c := &SendGridClient{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		baseURL:    defaultSendGridURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API key is set.
func (c *SendGridClient) Configured() bool {
	return c.apiKey != ""
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To  []sendGridAddress `json:"to"`
	Bcc []sendGridAddress `json:"bcc,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return fmt.Errorf("%w: missing sendgrid api key", ErrNotConfigured)
	}

	from := msg.From
	if from == "" {
		from = c.fromEmail
	}

	personalization := sendGridPersonalization{To: []sendGridAddress{{Email: msg.To}}}
	for _, bcc := range msg.Bcc {
		if bcc == "" || strings.EqualFold(bcc, msg.To) {
			continue
		}
		personalization.Bcc = append(personalization.Bcc, sendGridAddress{Email: bcc})
	}

	payload := sendGridMail{
		Personalizations: []sendGridPersonalization{personalization},
		From:             sendGridAddress{Email: from, Name: c.fromName},
		Subject:          msg.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: msg.HTML}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendgrid API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
