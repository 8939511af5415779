package viewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/accounts"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/kick"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// memStore implements storage.ConfigStore for the account manager
type memStore struct {
	mu       sync.Mutex
	accounts []models.KickAccount
}

func (s *memStore) LoadProxies(ctx context.Context) (string, error)       { return "", nil }
func (s *memStore) SaveProxies(ctx context.Context, text string) error    { return nil }
func (s *memStore) LoadUserAgents(ctx context.Context) (string, error)    { return "", nil }
func (s *memStore) SaveUserAgents(ctx context.Context, text string) error { return nil }

func (s *memStore) LoadAccounts(ctx context.Context) ([]models.KickAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.KickAccount, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *memStore) SaveAccounts(ctx context.Context, accts []models.KickAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]models.KickAccount(nil), accts...)
	return nil
}

// scriptedClient answers every request after a fixed delay
type scriptedClient struct {
	delay   time.Duration
	err     error
	payload []byte
}

func (c scriptedClient) Get(ctx context.Context, url string) ([]byte, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.payload, nil
}

// sequenceFactory hands out scripted clients in assignment order
func sequenceFactory(clients ...scriptedClient) ClientFactory {
	var mu sync.Mutex
	i := 0
	return func(p models.Proxy, userAgent, authCookie string) (kick.Getter, error) {
		mu.Lock()
		defer mu.Unlock()
		c := clients[i%len(clients)]
		i++
		return c, nil
	}
}

func testAccounts(t *testing.T, usernames ...string) *accounts.Manager {
	t.Helper()
	store := &memStore{}
	for _, u := range usernames {
		store.accounts = append(store.accounts, models.KickAccount{
			Username: u,
			Email:    u + "@example.com",
			Token:    "tok-" + u,
			IsActive: true,
		})
	}
	m := accounts.NewManager(store, time.Hour)
	m.Load(context.Background())
	return m
}

func proxies(hosts ...string) []models.Proxy {
	var out []models.Proxy
	for _, h := range hosts {
		out = append(out, models.Proxy{Host: h, Port: 8080, Protocol: models.ProtocolHTTP})
	}
	return out
}

func drain(t *testing.T, events <-chan models.Event) []models.Event {
	t.Helper()
	var out []models.Event
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("event stream never closed; got %d events", len(out))
		}
	}
}

func TestStart_RejectsBlankChannel(t *testing.T) {
	o := NewOrchestrator(proxies("a"), []string{"ua"}, testAccounts(t), sequenceFactory(scriptedClient{}), time.Hour)
	if _, err := o.Start(models.ViewerTestRequest{ChannelURL: "   ", AnonymousViewers: 1, Duration: 1}); err == nil {
		t.Fatal("blank channel must be rejected before spawning")
	}
}

func TestStart_AnonymousShortfallTruncates(t *testing.T) {
	o := NewOrchestrator(proxies("p1", "p2"), []string{"ua"}, testAccounts(t),
		sequenceFactory(scriptedClient{err: errors.New("refused")}), time.Hour)

	events, err := o.Start(models.ViewerTestRequest{ChannelURL: "xqc", AnonymousViewers: 5, Duration: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, events)

	sawShortfall, sawStarted := false, false
	for _, ev := range evs {
		if strings.Contains(ev.Log, "Not enough proxies for 5 viewers. Using 2 instead.") {
			sawShortfall = true
		}
		if strings.Contains(ev.Log, "✅ Started 2 total viewers (2 anonymous, 0 authenticated)") {
			sawStarted = true
		}
	}
	if !sawShortfall || !sawStarted {
		t.Fatalf("missing shortfall report, events: %#v", evs)
	}
}

func TestStart_AccountExhaustionTruncates(t *testing.T) {
	o := NewOrchestrator(proxies("p1", "p2", "p3"), []string{"ua"}, testAccounts(t, "only"),
		sequenceFactory(scriptedClient{err: errors.New("refused")}), time.Hour)

	events, err := o.Start(models.ViewerTestRequest{ChannelURL: "xqc", AuthenticatedViewers: 3, Duration: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, events)

	sawShortfall := false
	for _, ev := range evs {
		if strings.Contains(ev.Log, "No more accounts available. Started 1 authenticated viewers.") {
			sawShortfall = true
		}
	}
	if !sawShortfall {
		t.Fatalf("missing account shortfall report, events: %#v", evs)
	}
}

func TestRun_TestEndedOnceAfterLastTerminalEvent(t *testing.T) {
	// Three sessions terminating at staggered times; the ended signal must
	// follow the slowest session's terminal event.
	o := NewOrchestrator(proxies("p1", "p2", "p3"), []string{"ua"}, testAccounts(t),
		sequenceFactory(
			scriptedClient{delay: 50 * time.Millisecond, err: errors.New("refused")},
			scriptedClient{delay: 150 * time.Millisecond, err: errors.New("refused")},
			scriptedClient{delay: 300 * time.Millisecond, err: errors.New("refused")},
		), time.Hour)

	events, err := o.Start(models.ViewerTestRequest{ChannelURL: "xqc", AnonymousViewers: 3, Duration: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, events)

	ended := 0
	terminal := 0
	for i, ev := range evs {
		if ev.TestEnded {
			ended++
			if i != len(evs)-1 {
				t.Fatalf("test-ended event not last: index %d of %d", i, len(evs))
			}
		}
		if ev.ViewerDelta == -1 {
			terminal++
		}
	}
	if ended != 1 {
		t.Fatalf("expected exactly one test-ended event, got %d", ended)
	}
	if terminal != 3 {
		t.Fatalf("expected 3 terminal session events before the end, got %d", terminal)
	}
}

func TestRun_ZeroSessionsEndsImmediately(t *testing.T) {
	o := NewOrchestrator(nil, []string{"ua"}, testAccounts(t), sequenceFactory(scriptedClient{}), time.Hour)

	events, err := o.Start(models.ViewerTestRequest{ChannelURL: "xqc", AnonymousViewers: 2, Duration: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, events)

	if len(evs) == 0 || !evs[len(evs)-1].TestEnded {
		t.Fatalf("empty run must still end, events: %#v", evs)
	}
}

func TestStop_CancelsRunAndReleasesAccounts(t *testing.T) {
	accts := testAccounts(t, "only")
	o := NewOrchestrator(proxies("p1"), []string{"ua"}, accts,
		sequenceFactory(scriptedClient{payload: []byte(`{"livestream":{"id":1}}`)}), time.Hour)

	events, err := o.Start(models.ViewerTestRequest{ChannelURL: "xqc", AuthenticatedViewers: 1, Duration: 3600})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	o.Stop()
	o.Stop() // second stop must be harmless

	evs := drain(t, events)

	ended := 0
	for _, ev := range evs {
		if ev.TestEnded {
			ended++
		}
	}
	if ended != 1 {
		t.Fatalf("expected exactly one test-ended event after double stop, got %d", ended)
	}

	// the account must have been released exactly on session exit
	if _, ok := accts.Acquire(); !ok {
		t.Fatal("account not released after stopped run")
	}
}

func TestStop_BeforeStartIsNoop(t *testing.T) {
	o := NewOrchestrator(proxies("p1"), []string{"ua"}, testAccounts(t), sequenceFactory(scriptedClient{}), time.Hour)
	o.Stop()
	o.Stop()
}
