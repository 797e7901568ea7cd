package docextract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// KindJobDescription is the document type forwarded for uploaded JD files.
const KindJobDescription = "jd"

// Extractor resolves a stored file reference to its text. Implementations
// never fail: any problem yields "" so callers treat it as "no supplementary text".
type Extractor interface {
	Extract(ctx context.Context, fileRef, env, kind string) string
}

// Client calls the external extraction service.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Extract(ctx context.Context, fileRef, env, kind string) string {
	if kind == "" {
		kind = KindJobDescription
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		c.logger.ErrorContext(ctx, "invalid extraction url", "url", c.baseURL, "error", err)
		return ""
	}
	params := u.Query()
	params.Set("reckFname", fileRef)
	params.Set("type", kind)
	params.Set("env", env)
	u.RawQuery = params.Encode()
	apiURL := u.String()

	text, err := c.fetch(ctx, apiURL)
	if err != nil {
		c.logger.ErrorContext(ctx, "document extraction failed", "url", apiURL, "error", err)
		return ""
	}

	c.logger.InfoContext(ctx, "extracted document text", "file", fileRef, "chars", len(text))
	return text
}

func (c *Client) fetch(ctx context.Context, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("extract status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return strings.TrimSpace(decodeLossy(body)), nil
}

// decodeLossy decodes b as UTF-8, replacing every invalid byte with U+FFFD.
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
