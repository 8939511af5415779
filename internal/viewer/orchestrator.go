package viewer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/accounts"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/kick"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/proxyutil"
)

// ClientFactory builds the request capability for one session's proxy,
// user agent, and optional auth cookie.
type ClientFactory func(p models.Proxy, userAgent, authCookie string) (kick.Getter, error)

// Run is one orchestrated batch of sessions. It is owned by the
// orchestrator and never attached to the transport that started it.
type Run struct {
	ID     uuid.UUID
	events chan models.Event
	cancel context.CancelFunc

	started  int
	finished atomic.Int64
}

// Orchestrator assigns proxies, user agents, and accounts to viewer
// sessions and fans their telemetry into one stream per run.
type Orchestrator struct {
	proxies    []models.Proxy
	userAgents []string
	accounts   *accounts.Manager
	newClient  ClientFactory
	heartbeat  time.Duration

	mu  sync.Mutex
	run *Run
}

// NewOrchestrator creates an orchestrator over the loaded proxy and
// user-agent lists. Both lists are read-only from here on.
func NewOrchestrator(proxies []models.Proxy, userAgents []string, accts *accounts.Manager, factory ClientFactory, heartbeat time.Duration) *Orchestrator {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &Orchestrator{
		proxies:    proxies,
		userAgents: userAgents,
		accounts:   accts,
		newClient:  factory,
		heartbeat:  heartbeat,
	}
}

// TotalProxies reports the size of the raw proxy list
func (o *Orchestrator) TotalProxies() int {
	return len(o.proxies)
}

// AvailableAccounts reports how many accounts are active in the pool
func (o *Orchestrator) AvailableAccounts() int {
	return o.accounts.ActiveCount()
}

type assignment struct {
	mode      models.ViewerMode
	proxy     models.Proxy
	userAgent string
	account   *models.KickAccount
}

// Start validates the request, assigns resources, launches one goroutine
// per viewer, and returns the run's event stream. The stream carries every
// session's telemetry and is closed after a single test-ended event once
// all sessions have terminated. A run already in progress is stopped first.
func (o *Orchestrator) Start(req models.ViewerTestRequest) (<-chan models.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:     uuid.New(),
		events: make(chan models.Event, 256),
		cancel: cancel,
	}

	o.mu.Lock()
	if o.run != nil {
		o.run.cancel()
	}
	o.run = run
	o.mu.Unlock()

	filtered := proxyutil.Filter(o.proxies)
	duration := time.Duration(req.Duration) * time.Second

	total := req.AnonymousViewers + req.AuthenticatedViewers
	run.events <- models.Event{
		Log:              fmt.Sprintf("🚀 Starting viewer test for: %s", req.ChannelURL),
		TotalConnections: &total,
	}

	var assigned []assignment

	for i := 0; i < req.AnonymousViewers; i++ {
		if i >= len(filtered) {
			run.events <- models.Event{
				Log: fmt.Sprintf("⚠️ Not enough proxies for %d viewers. Using %d instead.", req.AnonymousViewers, len(filtered)),
			}
			break
		}
		assigned = append(assigned, assignment{
			mode:      models.ViewerModeAnonymous,
			proxy:     filtered[i%len(filtered)],
			userAgent: o.userAgent(i),
		})
	}

	for j := 0; j < req.AuthenticatedViewers; j++ {
		if len(filtered) == 0 {
			run.events <- models.Event{
				Log: fmt.Sprintf("⚠️ No proxies available for authenticated viewers. Started %d.", j),
			}
			break
		}
		account, ok := o.accounts.Acquire()
		if !ok {
			run.events <- models.Event{
				Log: fmt.Sprintf("⚠️ No more accounts available. Started %d authenticated viewers.", j),
			}
			break
		}
		idx := (req.AnonymousViewers + j) % len(filtered)
		acct := account
		assigned = append(assigned, assignment{
			mode:      models.ViewerModeAuthenticated,
			proxy:     filtered[idx],
			userAgent: o.userAgent(idx),
			account:   &acct,
		})
	}

	run.started = len(assigned)
	anonStarted := 0
	for _, a := range assigned {
		if a.mode == models.ViewerModeAnonymous {
			anonStarted++
		}
	}
	startedLog := models.Event{
		Log:           fmt.Sprintf("✅ Started %d total viewers (%d anonymous, %d authenticated)", run.started, anonStarted, run.started-anonStarted),
		ActiveViewers: &run.started,
	}
	run.events <- startedLog

	log.Info().
		Str("run_id", run.ID.String()).
		Str("channel", req.ChannelURL).
		Int("viewers", run.started).
		Dur("duration", duration).
		Msg("Viewer test started")

	if run.started == 0 {
		o.finishRun(run)
		return run.events, nil
	}

	for _, a := range assigned {
		go o.runSession(ctx, run, a, req.ChannelURL, duration)
	}

	return run.events, nil
}

// runSession executes one viewer session and performs the orchestrator's
// bookkeeping on exit: account release, termination counting, and the
// test-ended signal once the last session is done. Panics inside a session
// are contained here so a faulty session cannot take down its siblings.
func (o *Orchestrator) runSession(ctx context.Context, run *Run, a assignment, channelURL string, duration time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("run_id", run.ID.String()).
				Interface("panic", r).
				Str("proxy", a.proxy.Host).
				Msg("Viewer session panicked")
		}
		if a.account != nil {
			o.accounts.Release(a.account.Username)
		}
		if run.finished.Add(1) == int64(run.started) {
			o.finishRun(run)
		}
	}()

	authCookie := ""
	if a.account != nil && a.account.Token != "" {
		authCookie = "token=" + a.account.Token
	}

	client, err := o.newClient(a.proxy, a.userAgent, authCookie)
	if err != nil {
		select {
		case run.events <- models.Event{
			Log:         fmt.Sprintf("❌ Failed to connect from %s: %v", a.proxy.Host, err),
			ViewerDelta: -1,
		}:
		case <-ctx.Done():
		}
		return
	}

	session := &Session{
		ChannelURL: channelURL,
		Mode:       a.mode,
		Proxy:      a.proxy,
		UserAgent:  a.userAgent,
		Account:    a.account,
		Duration:   duration,
		Client:     client,
		Heartbeat:  o.heartbeat,
	}
	session.Run(ctx, run.events)
}

// finishRun emits the single test-ended event and closes the stream.
// It runs exactly once per run: either from Start for an empty run or from
// the last terminating session's goroutine.
func (o *Orchestrator) finishRun(run *Run) {
	zero := 0
	run.events <- models.Event{
		Log:           "🏁 All viewer sessions completed",
		ActiveViewers: &zero,
		TestEnded:     true,
	}
	close(run.events)

	o.mu.Lock()
	if o.run == run {
		o.run = nil
	}
	o.mu.Unlock()

	log.Info().Str("run_id", run.ID.String()).Msg("Viewer test finished")
}

// Stop cancels every outstanding session of the current run. It is safe to
// call with no active run and safe to call repeatedly; the test-ended event
// is still emitted exactly once, by the last session to observe the cancel.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()

	if run == nil {
		return
	}
	log.Info().Str("run_id", run.ID.String()).Msg("Stopping viewer test")
	run.cancel()
}

func (o *Orchestrator) userAgent(i int) string {
	if len(o.userAgents) == 0 {
		return ""
	}
	return o.userAgents[i%len(o.userAgents)]
}
