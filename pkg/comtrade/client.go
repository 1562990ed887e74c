// Package comtrade is a rate-limited client for the UN Comtrade preview
// API with cache-aside persistence and bounded retry. One Fetch resolves a
// single (reporter, partner, flow, code, period) request; the series
// helpers assemble multi-year datasets from many physical requests with
// partial-result semantics.
package comtrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/internal/resilience"
	"github.com/exportdss/downstream-cli/internal/store"
)

// DefaultBaseURL is the annual HS-classified goods endpoint.
const DefaultBaseURL = "https://comtradeapi.un.org/public/v1/preview/C/A/HS"

const (
	// ReporterWorld selects the aggregate scope: the API has no native
	// world-total query for imports, so the client sums the major importers.
	ReporterWorld = "all"

	// PartnerWorld is the partner code for "all partners combined".
	PartnerWorld = "0"
)

// MajorImporters lists the reporter codes summed for global-demand
// estimation, largest importing economies first.
var MajorImporters = []string{
	"842", // USA
	"156", // China
	"276", // Germany
	"392", // Japan
	"826", // United Kingdom
	"251", // France
	"381", // Italy
	"528", // Netherlands
	"124", // Canada
	"410", // South Korea
	"356", // India
	"724", // Spain
	"036", // Australia
	"702", // Singapore
	"458", // Malaysia
}

// Query identifies one physical Comtrade request.
type Query struct {
	Reporter string
	Partner  string
	Flow     model.Flow
	Code     string
	Period   string
}

// CacheKey returns the deterministic composite key for the query.
func (q Query) CacheKey() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s", q.Reporter, q.Partner, q.Flow, q.Code, q.Period)
}

// Response is the service's JSON envelope: a record count and the rows.
type Response struct {
	Count int           `json:"count"`
	Data  model.Dataset `json:"data"`
}

// ServiceError is terminal for one physical request: the retry budget is
// exhausted or the service rejected the request outright. Callers treat the
// unit as "no data", not as a fatal condition for the whole retrieval.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "comtrade: request failed: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err marks a terminally failed request.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// Client performs Comtrade retrievals.
type Client interface {
	Fetch(ctx context.Context, q Query) (*Response, error)
	ExportSeries(ctx context.Context, reporter, code string, years []int) (model.Dataset, error)
	ImportSeries(ctx context.Context, reporter, code string, years []int) (model.Dataset, error)
}

// Config holds client settings. Zero values take the defaults noted.
type Config struct {
	SubscriptionKey    string
	BaseURL            string        // DefaultBaseURL
	Timeout            time.Duration // 30s per request
	CacheTTL           time.Duration // 30 days
	RequestInterval    time.Duration // 500ms pacing between live calls
	InterYearDelay     time.Duration // 500ms between year fetches
	InterReporterDelay time.Duration // 300ms between importer fetches
	MaxAttempts        int           // 3
	Importers          []string      // MajorImporters
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = store.DefaultCacheTTL
	}
	if c.RequestInterval < 0 {
		c.RequestInterval = 0
	} else if c.RequestInterval == 0 {
		c.RequestInterval = 500 * time.Millisecond
	}
	if c.InterYearDelay == 0 {
		c.InterYearDelay = 500 * time.Millisecond
	}
	if c.InterReporterDelay == 0 {
		c.InterReporterDelay = 300 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if len(c.Importers) == 0 {
		c.Importers = MajorImporters
	}
	return c
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(c *client) {
		c.retry = p
	}
}

// WithSleep overrides the inter-call sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(c *client) {
		c.sleep = sleep
	}
}

// WithNow overrides the clock used to skip future years, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *client) {
		c.now = now
	}
}

type client struct {
	cfg     Config
	http    *http.Client
	store   store.Store
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
	sleep   func(ctx context.Context, d time.Duration)
	now     func() time.Time
}

// New creates a Comtrade client. st may be nil to disable caching.
func New(cfg Config, st store.Store, opts ...Option) Client {
	cfg = cfg.withDefaults()

	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	c := &client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		store:   st,
		limiter: lim,
		retry: resilience.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   time.Second,
			OnRetry:     resilience.RetryLogger("comtrade", "fetch"),
		},
		sleep: sleepCtx,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch resolves one physical request, consulting the cache first. A cache
// hit returns immediately with no network activity or pacing delay. A live
// success is decoded before being persisted with the configured TTL, so
// only payloads that parse ever enter the cache.
func (c *client) Fetch(ctx context.Context, q Query) (*Response, error) {
	key := q.CacheKey()

	if c.store != nil {
		payload, err := c.store.GetCachedResponse(ctx, key)
		switch {
		case err != nil:
			zap.L().Warn("cache read failed, falling through to live call",
				zap.String("key", key), zap.Error(err))
		case payload != nil:
			resp, err := decodeResponse(payload)
			if err == nil {
				zap.L().Debug("cache hit", zap.String("key", key))
				return resp, nil
			}
			// A corrupt entry must not block the key until its TTL
			// elapses; refetch and overwrite it.
			zap.L().Warn("cached payload undecodable, falling through to live call",
				zap.String("key", key), zap.Error(err))
		}
	}

	zap.L().Debug("cache miss, calling API", zap.String("key", key))

	payload, err := resilience.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, q)
	})
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	resp, err := decodeResponse(payload)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SetCachedResponse(ctx, key, q.Flow.Kind(), q.Code, payload, c.cfg.CacheTTL); err != nil {
			zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return resp, nil
}

// doRequest performs one live HTTP attempt. The limiter paces successive
// live calls at the configured fixed interval; retry backoff is layered on
// top by the caller.
func (c *client) doRequest(ctx context.Context, q Query) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "comtrade: limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "comtrade: create request")
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)

	params := url.Values{}
	params.Set("reporterCode", q.Reporter)
	params.Set("partnerCode", q.Partner)
	params.Set("partner2Code", "0")
	params.Set("flowCode", string(q.Flow))
	params.Set("cmdCode", q.Code)
	params.Set("period", q.Period)
	params.Set("customsCode", "C00")
	req.URL.RawQuery = params.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures are classified transient by the retry policy.
		return nil, eris.Wrap(err, "comtrade: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "comtrade: read response"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewTransientError(
			eris.Errorf("comtrade: rate limited (429)"), resp.StatusCode)
	default:
		// Any other non-2xx is a hard per-request failure. Only 429 and
		// transport errors are worth another attempt.
		return nil, eris.Errorf("comtrade: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func decodeResponse(payload []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, eris.Wrap(err, "comtrade: unmarshal response")
	}
	return &r, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
