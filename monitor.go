package versionwatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/st-keller/versionwatch/logger"
	"github.com/st-keller/versionwatch/manifest"
	"github.com/st-keller/versionwatch/standard"
	"github.com/st-keller/versionwatch/transport"
	"github.com/st-keller/versionwatch/types"
	"github.com/st-keller/versionwatch/update"
)

const (
	// DefaultURL is the manifest location, resolved against Config.BaseURL.
	DefaultURL = "/version.json"
	// DefaultMessage is the confirmation text shown by the default change handler.
	DefaultMessage = "New version detected. Please refresh the page to get the latest updates."
	// DefaultCacheBustParam is the query parameter carrying the request time.
	DefaultCacheBustParam = "t"

	maxManifestSize = 1 << 20
	recentLogsSize  = 100
)

// Config holds monitor configuration. Every field is optional.
type Config struct {
	Interval time.Duration // default 60s
	URL      string        // default "/version.json"
	BaseURL  string        // required when URL is relative
	Message  string        // text passed to Prompter.Confirm

	// OnNewVersion is called once per detected change. When nil, the default
	// handler asks Prompter to confirm Message and then calls Reloader.
	OnNewVersion func(manifest.VersionRecord)
	Prompter     types.Prompter
	Reloader     types.Reloader

	Silent bool            // suppresses all diagnostic output
	Logger *zerolog.Logger // default: console logger on stderr

	// OnError receives every fetch failure as a *FetchError. It is a callback,
	// not diagnostic output, so Silent does not suppress it.
	OnError func(error)

	HTTPClient     *http.Client      // default: transport.Build(TLS)
	TLS            transport.Options // ignored when HTTPClient is set
	Scheduler      update.Scheduler  // default: update.SystemScheduler
	CacheBustParam string            // default "t"
}

func (c *Config) defaults() {
	if c.Interval == 0 {
		c.Interval = update.DefaultInterval
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Message == "" {
		c.Message = DefaultMessage
	}
	if c.Scheduler == nil {
		c.Scheduler = update.SystemScheduler{}
	}
	if c.CacheBustParam == "" {
		c.CacheBustParam = DefaultCacheBustParam
	}
}

// Monitor polls a version manifest and reports the first change.
// It is safe for concurrent use.
type Monitor struct {
	cfg          Config
	url          *url.URL
	http         *http.Client
	log          zerolog.Logger
	logs         *standard.RecentLogs
	connectivity *standard.ConnectivityTracker

	mu       sync.Mutex
	running  bool
	gen      uint64 // bumped on every start and halt; stale runs compare against it
	baseline *manifest.VersionRecord
	ticker   update.Ticker
	cancel   context.CancelFunc
}

// New creates a stopped monitor.
func New(cfg Config) (*Monitor, error) {
	cfg.defaults()

	if err := update.Validate(cfg.Interval); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	target, err := resolveURL(cfg.BaseURL, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient, err = transport.Build(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
	}

	var base zerolog.Logger
	switch {
	case cfg.Silent:
		base = zerolog.Nop()
	case cfg.Logger != nil:
		base = *cfg.Logger
	default:
		base = logger.New(os.Stderr, false)
	}
	logs := standard.NewRecentLogs(recentLogsSize)

	m := &Monitor{
		cfg:          cfg,
		url:          target,
		http:         httpClient,
		log:          base.With().Str("component", "versionwatch").Logger().Hook(logs),
		logs:         logs,
		connectivity: standard.NewConnectivityTracker(),
	}
	if m.cfg.OnNewVersion == nil {
		m.cfg.OnNewVersion = m.confirmAndReload
	}
	return m, nil
}

// resolveURL parses ref and resolves it against baseURL. The result must be absolute.
func resolveURL(baseURL, ref string) (*url.URL, error) {
	target, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL %q: %w", ref, err)
	}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		target = base.ResolveReference(target)
	}
	if !target.IsAbs() || target.Host == "" {
		return nil, fmt.Errorf("manifest URL %q is relative and no BaseURL is set", ref)
	}
	return target, nil
}

// URL returns the resolved manifest URL, without the cache-busting parameter.
func (m *Monitor) URL() string { return m.url.String() }

// Connectivity returns the fetch statistics of this monitor.
func (m *Monitor) Connectivity() *standard.ConnectivityTracker { return m.connectivity }

// RecentLogs returns the last diagnostic lines emitted by this monitor.
func (m *Monitor) RecentLogs() *standard.RecentLogs { return m.logs }

// Running reports whether the monitor is started (including a baseline fetch in flight).
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Baseline returns the record captured by the last successful Start.
func (m *Monitor) Baseline() (manifest.VersionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseline == nil {
		return manifest.VersionRecord{}, false
	}
	return *m.baseline, true
}

// Start fetches the baseline manifest and arms the polling ticker.
// It is a no-op when the monitor is already running. A failed baseline fetch is
// reported through the logger and Config.OnError, and leaves the monitor stopped;
// call Start again to retry. Cancelling ctx stops the monitor.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.gen++
	gen := m.gen
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	rec, err := m.fetch(runCtx)

	m.mu.Lock()
	if gen != m.gen {
		// Stop ran while the baseline was in flight.
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.haltLocked()
		m.mu.Unlock()
		m.report(&FetchError{Phase: PhaseBaseline, URL: m.URL(), Err: err}, "Failed to start version checking")
		return
	}
	m.baseline = &rec
	m.ticker = m.cfg.Scheduler.NewTicker(m.cfg.Interval)
	go m.poll(runCtx, gen, m.ticker)
	m.mu.Unlock()

	m.log.Info().
		Str("url", m.URL()).
		Str("version", rec.Version).
		Dur("interval", m.cfg.Interval).
		Msg("Version checking started")
}

// Stop cancels the ticker and any fetch in flight. It is a no-op when the
// monitor is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.haltLocked()
	m.mu.Unlock()

	m.log.Info().Msg("Version checking stopped")
}

// haltLocked moves the monitor to STOPPED. Caller holds m.mu.
func (m *Monitor) haltLocked() {
	m.running = false
	m.gen++
	m.baseline = nil
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// haltIfCurrent halts the monitor unless run gen has already been superseded.
func (m *Monitor) haltIfCurrent(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.gen {
		m.haltLocked()
	}
}

// poll runs ticks for one start/stop cycle. Ticks never overlap.
func (m *Monitor) poll(ctx context.Context, gen uint64, ticker update.Ticker) {
	for {
		select {
		case <-ctx.Done():
			m.haltIfCurrent(gen)
			return
		case <-ticker.C():
			if done := m.tick(ctx, gen); done {
				return
			}
		}
	}
}

// tick runs one fetch-decode-compare cycle and reports whether polling is over.
func (m *Monitor) tick(ctx context.Context, gen uint64) bool {
	rec, err := m.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.haltIfCurrent(gen)
			return true
		}
		m.report(&FetchError{Phase: PhasePoll, URL: m.URL(), Err: err}, "Version check failed")
		return false
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return true
	}
	if !manifest.Changed(m.baseline, rec) {
		m.mu.Unlock()
		return false
	}
	previous := ""
	if m.baseline != nil {
		previous = m.baseline.Version
	}
	m.haltLocked()
	m.mu.Unlock()

	m.log.Info().
		Str("version", rec.Version).
		Int64("timestamp", rec.Timestamp).
		Str("previous", previous).
		Msg("New version detected")
	m.log.Info().Msg("Version checking stopped")

	// The monitor is already stopped, so the handler may Start it again.
	m.cfg.OnNewVersion(rec)
	return true
}

// fetch GETs the manifest with a cache-busting parameter and decodes it.
func (m *Monitor) fetch(ctx context.Context) (manifest.VersionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.requestURL(time.Now()), nil)
	if err != nil {
		return manifest.VersionRecord{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	endpoint := m.URL()
	startTime := time.Now()
	resp, err := m.http.Do(req)
	latency := time.Since(startTime)
	if err != nil {
		m.connectivity.TrackFailure(endpoint, latency, err.Error())
		return manifest.VersionRecord{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.connectivity.TrackFailure(endpoint, latency, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return manifest.VersionRecord{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		m.connectivity.TrackFailure(endpoint, latency, err.Error())
		return manifest.VersionRecord{}, fmt.Errorf("failed to read response: %w", err)
	}
	m.connectivity.TrackSuccess(endpoint, latency)

	return manifest.Decode(body)
}

// requestURL returns the manifest URL with the cache-busting parameter set to now.
func (m *Monitor) requestURL(now time.Time) string {
	u := *m.url
	q := u.Query()
	q.Set(m.cfg.CacheBustParam, strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Monitor) report(err *FetchError, msg string) {
	m.log.Error().
		Err(err.Err).
		Str("phase", string(err.Phase)).
		Str("url", err.URL).
		Msg(msg)
	if m.cfg.OnError != nil {
		m.cfg.OnError(err)
	}
}

// confirmAndReload is the default change handler.
func (m *Monitor) confirmAndReload(rec manifest.VersionRecord) {
	if m.cfg.Prompter == nil {
		m.log.Warn().Str("version", rec.Version).Msg("No prompter configured, new version not announced")
		return
	}
	if _, err := ConfirmAndReload(m.cfg.Prompter, m.cfg.Reloader, m.cfg.Message); err != nil {
		m.log.Error().Err(err).Msg("Reload failed")
	}
}

// ConfirmAndReload asks p to confirm message and, if affirmed, calls r.
// It reports whether a reload was performed. A nil p never confirms; a nil r never reloads.
func ConfirmAndReload(p types.Prompter, r types.Reloader, message string) (bool, error) {
	if p == nil || !p.Confirm(message) || r == nil {
		return false, nil
	}
	if err := r.Reload(); err != nil {
		return false, fmt.Errorf("reload: %w", err)
	}
	return true, nil
}
