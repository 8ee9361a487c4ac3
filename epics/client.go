// Package epics reads accelerator process variables over an HTTP PV gateway
// and exposes them through the observe.Interface capability. It also ships a
// seeded simulator so the rest of the toolchain can run away from the
// machine.
package epics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/accelsw/felobs/observe"
)

// Client reads process variables from a single PV gateway.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

var _ observe.Interface = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds every gateway round trip.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithClientLogger routes the client's debug output to log.
func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient returns a Client for the gateway at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(15 * time.Second),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sample is one channel reading on the wire. Gateways encode invalid shots
// as JSON null, which decodes to NaN so the filtering downstream sees them.
type sample float64

func (s *sample) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = sample(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = sample(f)
	return nil
}

type pvResponse struct {
	Name   string   `json:"name"`
	Values []sample `json:"values"`
}

type pvsRequest struct {
	Names []string `json:"names"`
}

type pvsResponse struct {
	Values map[string][]sample `json:"values"`
}

// GetValue reads one channel. Scalar channels come back as a single-element
// slice, waveform channels as the full history buffer.
func (c *Client) GetValue(ctx context.Context, name string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/api/pv?name=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway error reading %s: status=%d body=%s", name, resp.StatusCode, string(b))
	}

	var pr pvResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	c.log.Debug("pv read",
		zap.String("name", name),
		zap.Int("samples", len(pr.Values)),
		zap.Duration("elapsed", time.Since(start)))
	return floatsOf(pr.Values), nil
}

// GetValues reads several channels in one batched call.
func (c *Client) GetValues(ctx context.Context, names []string) (map[string][]float64, error) {
	body, _ := json.Marshal(pvsRequest{Names: names})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pvs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", strings.Join(names, ","), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway error reading batch: status=%d body=%s", resp.StatusCode, string(b))
	}

	var pr pvsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding batch: %w", err)
	}

	out := make(map[string][]float64, len(pr.Values))
	for name, vals := range pr.Values {
		out[name] = floatsOf(vals)
	}
	c.log.Debug("pv batch read",
		zap.Strings("names", names),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// Ping checks that the gateway answers at all by reading the beam-rate
// channel, which every gateway serves.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetValue(ctx, observe.BeamRateChannel)
	return err
}

func floatsOf(in []sample) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// newHTTPClient returns a tuned HTTP client with keep-alives (important for consistency).
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
