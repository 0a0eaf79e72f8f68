package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/stockstorm/widgets-go/logging"
)

// Endpoint paths relative to the site root.
const (
	BotChartPathFormat = "/v1/ai/bot/%s/chart"
	PortfolioChartPath = "/v1/ai/portfolio/chart"
)

var (
	// ErrSuperseded is returned by a load whose container was claimed by a
	// newer load before it finished. Its result is discarded.
	ErrSuperseded = errors.New("chart: load superseded")
	// ErrNoContainer is returned when the page lacks the target container.
	ErrNoContainer = errors.New("chart: container not on page")
)

// StatusError reports a well-formed envelope whose status is not "success".
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chart: status %q", e.Status)
	}
	return fmt.Sprintf("chart: status %q: %s", e.Status, e.Message)
}

// Result is a successfully rendered chart.
type Result struct {
	Envelope Envelope
	// Config is set for Chart.js charts.
	Config *Config
}

// Filter narrows the portfolio chart. Empty fields are left to the server's
// defaults.
type Filter struct {
	Strategy string
	Period   string
}

// Query encodes the non-empty filter fields.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Strategy != "" {
		q.Set("strategy", f.Strategy)
	}
	if f.Period != "" {
		q.Set("period", f.Period)
	}
	return q
}

type fragment struct {
	id   string
	pick func(*Envelope) string
}

type target struct {
	container string
	loading   string
	failure   string
	network   string
	alt       string
	fragments []fragment
}

var (
	botTarget = target{
		container: BotContainerID,
		loading:   "Generating chart...",
		failure:   "Unable to generate the chart.",
		network:   "An error occurred while generating the chart.",
		alt:       "Bot profit chart",
		fragments: []fragment{
			{BotInfoID, func(e *Envelope) string { return e.BotInfo }},
			{DetailedAnalysisID, func(e *Envelope) string { return e.DetailedAnalysis }},
		},
	}
	portfolioTarget = target{
		container: PortfolioContainerID,
		loading:   "Generating portfolio chart...",
		failure:   "Unable to generate the portfolio chart.",
		network:   "An error occurred while generating the portfolio chart.",
		alt:       "Portfolio chart",
		fragments: []fragment{
			{PortfolioAnalysisID, func(e *Envelope) string { return e.PortfolioAnalysis }},
		},
	}
)

const unsupportedText = "Unable to generate the chart."

type slot struct {
	seq    uint64
	cancel context.CancelFunc
}

// Loader fetches chart envelopes and writes them onto a Page. Each container
// holds at most one load in flight; starting another cancels the first.
type Loader struct {
	baseURL    string
	httpClient *http.Client
	session    *http.Cookie
	page       Page
	renderer   Renderer
	policy     *bluemonday.Policy
	logger     logging.Logger

	mu    sync.Mutex
	seq   uint64
	slots map[string]*slot
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.httpClient = c
		}
	}
}

// WithSessionCookie attaches the site session to every request.
func WithSessionCookie(c *http.Cookie) Option {
	return func(l *Loader) { l.session = c }
}

func WithLogger(lg logging.Logger) Option {
	return func(l *Loader) { l.logger = logging.OrNop(lg) }
}

// WithRenderer replaces CanvasRenderer.
func WithRenderer(r Renderer) Option {
	return func(l *Loader) {
		if r != nil {
			l.renderer = r
		}
	}
}

// WithFragmentPolicy sanitizes analysis fragments with p before insertion.
// Without it fragments are trusted server markup and inserted as is.
func WithFragmentPolicy(p *bluemonday.Policy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithSanitizedFragments is WithFragmentPolicy(bluemonday.UGCPolicy()).
func WithSanitizedFragments() Option {
	return WithFragmentPolicy(bluemonday.UGCPolicy())
}

// NewLoader creates a loader for the site at baseURL writing into page.
func NewLoader(baseURL string, page Page, opts ...Option) *Loader {
	l := &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		page:     page,
		renderer: CanvasRenderer{},
		logger:   logging.Nop{},
		slots:    make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadBotChart loads the profit chart of one bot into the bot container.
func (l *Loader) LoadBotChart(ctx context.Context, botID string) (*Result, error) {
	if strings.TrimSpace(botID) == "" {
		return nil, errors.New("chart: empty bot id")
	}
	return l.load(ctx, botTarget, fmt.Sprintf(BotChartPathFormat, url.PathEscape(botID)))
}

// LoadPortfolioChart loads the portfolio chart into the portfolio container.
func (l *Loader) LoadPortfolioChart(ctx context.Context, f Filter) (*Result, error) {
	path := PortfolioChartPath
	if q := f.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	return l.load(ctx, portfolioTarget, path)
}

func (l *Loader) load(ctx context.Context, t target, path string) (*Result, error) {
	if !l.page.Has(t.container) {
		return nil, ErrNoContainer
	}
	ctx, seq := l.begin(ctx, t)

	env, err := l.fetch(ctx, path)
	if err != nil {
		ok := l.finish(t.container, seq, func() {
			l.page.SetHTML(t.container, alertMarkup("danger", t.network))
		})
		if !ok {
			return nil, ErrSuperseded
		}
		l.logger.Warn("chart request failed", map[string]any{"path": path, "error": err.Error()})
		return nil, err
	}

	var (
		res      *Result
		applyErr error
	)
	ok := l.finish(t.container, seq, func() {
		res, applyErr = l.apply(t, env)
	})
	if !ok {
		return nil, ErrSuperseded
	}
	if applyErr != nil {
		l.logger.Warn("chart not rendered", map[string]any{"path": path, "error": applyErr.Error()})
	}
	return res, applyErr
}

// begin cancels any load in flight for the container, claims it and shows
// the loading indicator.
func (l *Loader) begin(ctx context.Context, t target) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.slots[t.container]; ok {
		prev.cancel()
	}
	l.seq++
	ctx, cancel := context.WithCancel(ctx)
	l.slots[t.container] = &slot{seq: l.seq, cancel: cancel}
	l.page.SetHTML(t.container, loadingMarkup(t.loading))
	return ctx, l.seq
}

// finish releases the container and runs apply if seq still owns it.
func (l *Loader) finish(container string, seq uint64, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[container]
	if !ok || s.seq != seq {
		return false
	}
	s.cancel()
	delete(l.slots, container)
	apply()
	return true
}

// apply writes a decoded envelope into the page. Must hold l.mu.
func (l *Loader) apply(t target, env *Envelope) (*Result, error) {
	if !env.OK() {
		msg := env.Message
		if msg == "" {
			msg = t.failure
		}
		l.page.SetHTML(t.container, alertMarkup("danger", msg))
		return nil, &StatusError{Status: env.Status, Message: env.Message}
	}

	res := &Result{Envelope: *env}
	switch {
	case env.ChartType == TypeImage && env.ChartImage != "":
		l.page.SetHTML(t.container, imageMarkup(env.ChartImage, t.alt))
	case env.ChartType == TypeChartJS && env.ChartData != "":
		data, err := ParseData(env.ChartData)
		if err != nil {
			l.page.SetHTML(t.container, alertMarkup("danger", t.network))
			return nil, err
		}
		cfg := NewConfig(data)
		markup, err := l.renderer.Render(cfg)
		if err != nil {
			l.page.SetHTML(t.container, alertMarkup("danger", t.network))
			return nil, err
		}
		l.page.SetHTML(t.container, markup)
		res.Config = &cfg
	default:
		l.page.SetHTML(t.container, alertMarkup("warning", unsupportedText))
	}

	for _, fr := range t.fragments {
		if v := fr.pick(env); v != "" {
			l.page.SetHTML(fr.id, l.sanitize(v))
		}
	}
	return res, nil
}

func (l *Loader) sanitize(markup string) string {
	if l.policy == nil {
		return markup
	}
	return l.policy.Sanitize(markup)
}

// fetch decodes the envelope whatever the status code; the backend reports
// failures as JSON envelopes with 4xx/5xx codes.
func (l *Loader) fetch(ctx context.Context, path string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.session != nil {
		req.AddCookie(l.session)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	return &env, nil
}
