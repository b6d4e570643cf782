package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/envutil"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// Client talks to the external content-attestation ledger. The ledger keeps
// an append-only record of material content hashes so access decisions can
// corroborate stored hashes against an independent source.
type Client interface {
	// RegisterHash records a material's content hash under its ID.
	RegisterHash(ctx context.Context, materialID, hash string) error
	// GetHash returns the ledger's recorded hash for a material, or
	// apperr.ErrAttestation when the ledger cannot answer.
	GetHash(ctx context.Context, materialID string) (string, error)
	// Deregister removes a material's ledger entry.
	Deregister(ctx context.Context, materialID string) error
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("LEDGER_TIMEOUT_SECONDS", 5)
	return Config{
		BaseURL: strings.TrimSpace(os.Getenv("LEDGER_BASE_URL")),
		APIKey:  strings.TrimSpace(os.Getenv("LEDGER_API_KEY")),
		Timeout: time.Duration(timeoutSec) * time.Second,
	}
}

// NewFromEnv returns a live client when LEDGER_BASE_URL is set and a noop
// client otherwise. Deployments without a ledger run fine; attestation
// registration and corroboration simply become no-ops.
func NewFromEnv(log *logger.Logger) Client {
	cfg := ConfigFromEnv()
	if cfg.BaseURL == "" {
		log.Info("LEDGER_BASE_URL not set, attestation ledger disabled")
		return Noop{}
	}
	return New(log, cfg)
}

func New(log *logger.Logger, cfg Config) Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &client{
		log:        log.With("client", "LedgerClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type registerRequest struct {
	MaterialID string `json:"materialId"`
	Hash       string `json:"hash"`
}

type hashResponse struct {
	MaterialID string `json:"materialId"`
	Hash       string `json:"hash"`
}

func (c *client) RegisterHash(ctx context.Context, materialID, hash string) error {
	body, err := json.Marshal(registerRequest{MaterialID: materialID, Hash: hash})
	if err != nil {
		return fmt.Errorf("%w: marshal register request: %v", apperr.ErrAttestation, err)
	}
	resp, err := c.do(ctx, "register", http.MethodPost, "/hashes", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: register returned %d", apperr.ErrAttestation, resp.StatusCode)
	}
	return nil
}

func (c *client) GetHash(ctx context.Context, materialID string) (string, error) {
	resp, err := c.do(ctx, "lookup", http.MethodGet, "/hashes/"+url.PathEscape(materialID), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: no ledger entry for material %s", apperr.ErrAttestation, materialID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: lookup returned %d", apperr.ErrAttestation, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("%w: read lookup response: %v", apperr.ErrAttestation, err)
	}
	var out hashResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode lookup response: %v", apperr.ErrAttestation, err)
	}
	if strings.TrimSpace(out.Hash) == "" {
		return "", fmt.Errorf("%w: ledger returned empty hash", apperr.ErrAttestation)
	}
	return out.Hash, nil
}

func (c *client) Deregister(ctx context.Context, materialID string) error {
	resp, err := c.do(ctx, "deregister", http.MethodDelete, "/hashes/"+url.PathEscape(materialID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		// Already gone, deregistration is idempotent.
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: deregister returned %d", apperr.ErrAttestation, resp.StatusCode)
	}
	return nil
}

func (c *client) do(ctx context.Context, op, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperr.ErrAttestation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.Current().ObserveLedgerCall(op, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", apperr.ErrAttestation, err)
	}
	observability.Current().ObserveLedgerCall(op, "ok", time.Since(start))
	return resp, nil
}

// Noop is the disabled-ledger client. Registration and deregistration
// succeed silently; lookups report the ledger as unavailable so callers
// skip corroboration instead of treating silence as a match.
type Noop struct{}

func (Noop) RegisterHash(ctx context.Context, materialID, hash string) error { return nil }

func (Noop) GetHash(ctx context.Context, materialID string) (string, error) {
	return "", fmt.Errorf("%w: attestation ledger disabled", apperr.ErrAttestation)
}

func (Noop) Deregister(ctx context.Context, materialID string) error { return nil }
