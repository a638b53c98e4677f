package clipper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/llm"
)

const (
	fetchTimeout = 15 * time.Second
	maxBodySize  = 5 << 20
	userAgent    = "meal-planner/1.0 (+recipe ingredient import)"
)

// ErrNoIngredients is returned when a page was fetched but no ingredient list
// could be found on it.
var ErrNoIngredients = errors.New("no ingredients found")

// Result is what a recipe page yields for the shopping list.
type Result struct {
	Title       string            `json:"title"`
	Ingredients []string          `json:"ingredients"`
	Quantities  map[string]string `json:"quantities,omitempty"`
}

// Clipper fetches recipe pages and extracts their ingredient lists.
type Clipper struct {
	textGen      llm.TextGenerator
	logger       *zap.Logger
	httpClient   *http.Client
	allowPrivate bool
}

// Option configures a Clipper.
type Option func(*Clipper)

// AllowPrivateHosts disables the private address checks. Only meant for
// tests and trusted local setups.
func AllowPrivateHosts() Option {
	return func(c *Clipper) { c.allowPrivate = true }
}

// NewClipper creates a new Clipper. textGen is optional; without it pages
// that carry no structured ingredient list fail with ErrNoIngredients.
func NewClipper(textGen llm.TextGenerator, logger *zap.Logger, opts ...Option) *Clipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Clipper{textGen: textGen, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !c.allowPrivate {
		transport.DialContext = guardedDialer(&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second})
	}
	c.httpClient = &http.Client{Timeout: fetchTimeout, Transport: transport}
	return c
}

// FetchIngredients downloads the page at rawURL and returns its ingredients.
// Structured data is preferred over page markup; the language model is only
// asked when neither yields a list.
func (c *Clipper) FetchIngredients(ctx context.Context, rawURL string) (*Result, error) {
	u, err := checkURL(rawURL, c.allowPrivate)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	res, source, err := c.extract(ctx, body, u)
	if err != nil {
		c.logger.Info("no ingredients extracted", zap.String("url", u.String()), zap.Error(err))
		return nil, err
	}
	res.Quantities = quantities(res.Ingredients)
	c.logger.Info("recipe ingredients fetched",
		zap.String("url", u.String()),
		zap.String("source", source),
		zap.Int("ingredients", len(res.Ingredients)))
	return res, nil
}

func (c *Clipper) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedURL) {
			return nil, ErrBlockedURL
		}
		return nil, fmt.Errorf("failed to fetch recipe page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch recipe page: status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("recipe page is larger than %d bytes", maxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe page: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("recipe page is larger than %d bytes", maxBodySize)
	}
	return bytes.TrimSpace(body), nil
}
