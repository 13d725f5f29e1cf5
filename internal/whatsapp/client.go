package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

// State of the provider connection. Transitions:
// disconnected -> connecting -> connected, and connected -> error on
// failure. From error only an explicit Connect or Disconnect moves on.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

var (
	ErrNotConnected       = errors.New("whatsapp client is not connected")
	ErrInvalidCredentials = errors.New("invalid whatsapp credentials")
)

type Credentials struct {
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
}

// Validate checks the credential shape before any network call is made.
func (c Credentials) Validate() error {
	if len(c.AccessToken) < 20 {
		return fmt.Errorf("%w: access token too short", ErrInvalidCredentials)
	}
	if c.PhoneNumberID == "" || strings.Trim(c.PhoneNumberID, "0123456789") != "" {
		return fmt.Errorf("%w: phone number id must be numeric", ErrInvalidCredentials)
	}
	return nil
}

// EventSink receives the integration audit trail. Every connection
// attempt, send and provider error goes through here regardless of outcome.
type EventSink interface {
	LogEvent(ctx context.Context, typ domain.EventType, detail string)
}

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// Client talks to the WhatsApp Cloud API for one operator account and owns
// the connection state machine.
type Client struct {
	cfg    Config
	creds  Credentials
	http   *http.Client
	events EventSink

	mu    sync.Mutex
	state State

	// sleep is swapped out in tests to avoid real retry waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, creds Credentials, events EventSink) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com/v17.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		cfg:    cfg,
		creds:  creds,
		http:   &http.Client{Timeout: cfg.Timeout},
		events: events,
		state:  StateDisconnected,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) logEvent(ctx context.Context, typ domain.EventType, format string, args ...any) {
	if c.events == nil {
		return
	}
	c.events.LogEvent(ctx, typ, fmt.Sprintf(format, args...))
}

// TestConnection validates the credential shape and performs a lightweight
// provider call (GET on the phone number resource). It does not change the
// connection state.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.creds.Validate(); err != nil {
		c.logEvent(ctx, domain.EventError, "credential validation failed: %v", err)
		return err
	}

	url := fmt.Sprintf("%s/%s?fields=id", c.cfg.BaseURL, c.creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logEvent(ctx, domain.EventConnection, "connectivity probe failed: %v", err)
		return fmt.Errorf("whatsapp probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logEvent(ctx, domain.EventConnection, "connectivity probe rejected: status=%d body=%s", resp.StatusCode, string(body))
		return fmt.Errorf("whatsapp probe: unexpected status %d", resp.StatusCode)
	}

	c.logEvent(ctx, domain.EventConnection, "connectivity probe ok")
	return nil
}

// Connect drives disconnected/error -> connecting -> connected. Retries are
// a bounded linear backoff (interval x attempt number); when the budget is
// exhausted the state is pinned to error until someone calls Connect again.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)
	c.logEvent(ctx, domain.EventConnection, "connecting")

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		lastErr = c.TestConnection(ctx)
		if lastErr == nil {
			c.setState(StateConnected)
			c.logEvent(ctx, domain.EventConnection, "connected after %d attempt(s)", attempt)
			return nil
		}

		if errors.Is(lastErr, ErrInvalidCredentials) {
			break
		}
		if attempt < c.cfg.MaxRetries {
			if err := c.sleep(ctx, c.cfg.RetryInterval*time.Duration(attempt)); err != nil {
				lastErr = err
				break
			}
		}
	}

	c.setState(StateError)
	c.logEvent(ctx, domain.EventError, "connect failed, manual retry required: %v", lastErr)
	return fmt.Errorf("connect: %w", lastErr)
}

// Disconnect resets the state machine; it is the manual-intervention path
// out of the error state.
func (c *Client) Disconnect(ctx context.Context) {
	c.setState(StateDisconnected)
	c.logEvent(ctx, domain.EventConnection, "disconnected")
}

type sendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textBody     `json:"text,omitempty"`
	Template         *templateBody `json:"template,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type templateBody struct {
	Name     string       `json:"name"`
	Language templateLang `json:"language"`
}

type templateLang struct {
	Code string `json:"code"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// SendText delivers a free-form text message. Requires the connected state
// and fails fast otherwise. Returns the provider message id.
func (c *Client) SendText(ctx context.Context, phone, text string) (string, error) {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// SendTemplate delivers a pre-approved provider template by name.
func (c *Client) SendTemplate(ctx context.Context, phone, templateName, langCode string) (string, error) {
	if langCode == "" {
		langCode = "pt_BR"
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "template",
		Template:         &templateBody{Name: templateName, Language: templateLang{Code: langCode}},
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) (string, error) {
	if c.State() != StateConnected {
		c.logEvent(ctx, domain.EventError, "send to %s rejected: state=%s", payload.To, c.State())
		return "", ErrNotConnected
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure means the session itself is suspect.
		c.setState(StateError)
		c.logEvent(ctx, domain.EventError, "send to %s failed: %v", payload.To, err)
		return "", fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil && resp.StatusCode < 300 {
		c.logEvent(ctx, domain.EventError, "send to %s: undecodable response: %v", payload.To, err)
		return "", fmt.Errorf("whatsapp send: decode response: %w body=%q", err, string(body))
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.setState(StateError)
		c.logEvent(ctx, domain.EventError, "send to %s: auth rejected (status %d)", payload.To, resp.StatusCode)
		return "", fmt.Errorf("whatsapp send: auth rejected (status %d)", resp.StatusCode)
	}

	if resp.StatusCode >= 300 {
		detail := string(body)
		if sr.Error != nil {
			detail = sr.Error.Message
		}
		// Recipient-level rejection: the session stays connected, the
		// caller records the error and moves on.
		c.logEvent(ctx, domain.EventError, "send to %s rejected by provider: %s", payload.To, detail)
		return "", fmt.Errorf("whatsapp send: provider rejected: %s", detail)
	}

	if len(sr.Messages) == 0 || sr.Messages[0].ID == "" {
		c.logEvent(ctx, domain.EventError, "send to %s: missing message id in response", payload.To)
		return "", fmt.Errorf("whatsapp send: missing message id in response body=%q", string(body))
	}

	c.logEvent(ctx, domain.EventMessage, "message sent to %s id=%s", payload.To, sr.Messages[0].ID)
	return sr.Messages[0].ID, nil
}

// Template is a pre-approved message template registered with the provider.
type Template struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Language string `json:"language"`
}

type listTemplatesResponse struct {
	Data  []Template `json:"data"`
	Error *apiError  `json:"error"`
}

// ListTemplates fetches the templates registered on the business account.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	if c.creds.BusinessAccountID == "" {
		return nil, fmt.Errorf("%w: business account id not configured", ErrInvalidCredentials)
	}

	url := fmt.Sprintf("%s/%s/message_templates", c.cfg.BaseURL, c.creds.BusinessAccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logEvent(ctx, domain.EventError, "list templates failed: %v", err)
		return nil, fmt.Errorf("whatsapp list templates: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256<<10))

	var lr listTemplatesResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("whatsapp list templates: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := string(body)
		if lr.Error != nil {
			detail = lr.Error.Message
		}
		c.logEvent(ctx, domain.EventError, "list templates rejected: %s", detail)
		return nil, fmt.Errorf("whatsapp list templates: %s", detail)
	}

	return lr.Data, nil
}
