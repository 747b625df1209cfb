package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	composer "github.com/goliatone/go-dashboard-composer/components/composer"
)

// ErrMissingReference is returned when a widget lacks its surface identifiers.
var ErrMissingReference = errors.New("analytics: widget and dashboard oids are required")

// HTTPConfig configures the HTTP analytics client.
type HTTPConfig struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// HTTPClient talks to the analytics rendering surface via REST endpoints.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the live rendering surface.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("analytics: token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  httpClient,
	}, nil
}

// Verify implements CredentialVerifier against the token endpoint.
func (c *HTTPClient) Verify(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/auth/verify", nil, nil)
}

// FetchChartOptions implements ChartClient via the widget options endpoint.
func (c *HTTPClient) FetchChartOptions(ctx context.Context, ref WidgetRef) (composer.ChartOptions, error) {
	if ref.WidgetOID == "" || ref.DashboardOID == "" {
		return nil, ErrMissingReference
	}
	path := fmt.Sprintf("/api/v1/dashboards/%s/widgets/%s/options",
		url.PathEscape(ref.DashboardOID), url.PathEscape(ref.WidgetOID))
	var resp chartResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Options == nil {
		return nil, fmt.Errorf("analytics: widget %s returned no options", ref.WidgetOID)
	}
	return resp.Options, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("analytics: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("analytics: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("analytics: decode response: %w", err)
	}
	return nil
}

type chartResponse struct {
	WidgetOID string                `json:"widgetOid"`
	Options   composer.ChartOptions `json:"options"`
}
