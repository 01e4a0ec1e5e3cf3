package libraries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Mailer sends one templated email.
type Mailer interface {
	Send(ctx context.Context, params map[string]string) error
}

type EmailJSConfig struct {
	APIURL     string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Timeout    time.Duration
}

// EmailJSClient talks to the EmailJS REST api.
type EmailJSClient struct {
	cfg        EmailJSConfig
	httpClient *http.Client
}

func NewEmailJSClient(cfg EmailJSConfig) *EmailJSClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &EmailJSClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (c *EmailJSClient) Send(ctx context.Context, params map[string]string) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("emailjs status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// LogMailer only logs. Used when EmailJS is not configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, params map[string]string) error {
	log.WithFields(log.Fields{
		"to_email":   params["to_email"],
		"board_name": params["board_name"],
		"action_url": params["action_url"],
	}).Info("email delivery disabled, skipping notification")
	return nil
}
