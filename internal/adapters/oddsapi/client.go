package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com"

	defaultRatePerSec = 5
	defaultTimeout    = 15 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Options configura el Client.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSec    float64
	SportPrefixes []string // prefijos de liga que se escanean (ej. "soccer_")
}

// Client es el HTTP client de The Odds API v4 con rate limiting y retries.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	limiter  *rate.Limiter
	prefixes []string
}

// StatusError es una respuesta 4xx del proveedor.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Code, e.Body)
}

// NewClient crea un Client. Campos vacíos toman los valores de producción.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = defaultRatePerSec
	}
	if len(opts.SportPrefixes) == 0 {
		opts.SportPrefixes = []string{"tennis_", "soccer_"}
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSec), 5),
		prefixes: opts.SportPrefixes,
	}
}

// HasKey indica si hay una API key configurada con longitud plausible.
func (c *Client) HasKey() bool {
	return len(c.apiKey) > 10
}

// endpoint arma la URL con la apiKey y los parámetros dados.
func (c *Client) endpoint(path string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("apiKey", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.endpoint(path, params)
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// 429 y 5xx se reintentan; el resto de 4xx falla en el acto.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			err = redact(err)
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by odds api", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		if rem := resp.Header.Get("x-requests-remaining"); rem != "" {
			slog.Debug("odds api quota", "remaining", rem, "used", resp.Header.Get("x-requests-used"))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// redact quita la query (con la apiKey) de los errores de transporte.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		}
	}
	return err
}
