package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectCallScriptGenerated = "callify.callscript.generated"
	SubjectEmailGenerated      = "callify.email.generated"
)

// GenerationEvent is published after a call script or email was produced.
type GenerationEvent struct {
	RequestID    string    `json:"request_id"`
	JobID        string    `json:"job_id,omitempty"`
	VendorID     string    `json:"vendor_id"`
	IntentID     string    `json:"intent_id"`
	LanguageCode string    `json:"language_code"`
	Translated   bool      `json:"translated"`
	Timestamp    time.Time `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("callify"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishGenerated emits evt on subject. Failures are logged and swallowed;
// events never affect the HTTP response.
func (c *Client) PublishGenerated(ctx context.Context, subject string, evt GenerationEvent) {
	if err := c.Publish(subject, evt); err != nil {
		c.logger.WarnContext(ctx, "failed to publish generation event", "subject", subject, "error", err)
	}
}

// Close flushes pending events before closing the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
	}
}
