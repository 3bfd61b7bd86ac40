package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"
)

const resendAPI = "https://api.resend.com/emails"

const defaultFrom = "Club25 <hello@club25.co>"

// Sender delivers a rendered e-mail. Nil = no-op (the worker drops the job).
type Sender interface {
	Send(ctx context.Context, email Email) error
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendClient sends via the Resend HTTP API.
type ResendClient struct {
	APIKey   string
	From     string
	Endpoint string
	Client   *http.Client
}

func (c *ResendClient) from() string {
	if c.From != "" {
		return c.From
	}
	return defaultFrom
}

func (c *ResendClient) Send(ctx context.Context, email Email) error {
	if c.APIKey == "" {
		return nil
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = resendAPI
	}
	body, err := json.Marshal(resendRequest{
		From:    c.from(),
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	From   string
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	if from == "" {
		from = defaultFrom
	}
	return &SMTPSender{From: from, dialer: gomail.NewDialer(host, port, user, pass)}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTML)
	return s.dialer.DialAndSend(m)
}
