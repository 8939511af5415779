// Package viewer contains the per-viewer session state machine and the
// orchestrator that runs a batch of sessions as one test.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/kick"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// DefaultHeartbeatInterval is the fixed period between presence refreshes
const DefaultHeartbeatInterval = 30 * time.Second

// Session simulates one viewer's presence on a channel for a bounded
// duration: connect, verify the channel, then heartbeat until the duration
// elapses or the context is cancelled.
type Session struct {
	ChannelURL string
	Mode       models.ViewerMode
	Proxy      models.Proxy
	UserAgent  string
	Account    *models.KickAccount
	Duration   time.Duration

	Client    kick.Getter
	Heartbeat time.Duration
}

// Run drives the session to completion, emitting telemetry into events.
// Every failure is converted into a terminal telemetry event; Run never
// returns an error and never emits after its terminal event. Cancelling ctx
// stops the session promptly without a summary event.
func (s *Session) Run(ctx context.Context, events chan<- models.Event) {
	heartbeat := s.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}

	channel, err := kick.ParseChannelURL(s.ChannelURL)
	if err != nil {
		s.emit(ctx, events, models.Event{
			Log: fmt.Sprintf("❌ %v", err),
		})
		return
	}

	pageURL := kick.ChannelPageURL(channel)
	apiURL := kick.ChannelAPIURL(channel)

	s.emit(ctx, events, models.Event{
		Log: fmt.Sprintf("🔗 Connecting to %s (%s mode) from %s", pageURL, s.Mode, s.Proxy.Host),
	})

	payload, err := s.Client.Get(ctx, apiURL)
	if err == nil && len(payload) == 0 {
		err = fmt.Errorf("channel not found or not live")
	}
	if err != nil {
		// The -1 undoes the optimistic count the UI keeps per started viewer
		s.emit(ctx, events, models.Event{
			Log:         fmt.Sprintf("❌ Failed to connect from %s: %v", s.Proxy.Host, err),
			ViewerDelta: -1,
		})
		return
	}

	status := "OFFLINE"
	if info, perr := kick.ParseChannelInfo(payload); perr == nil && info.IsLive() {
		status = "LIVE"
	}
	s.emit(ctx, events, models.Event{
		Log:         fmt.Sprintf("✅ Connected to %s - %s (%s)", channel, status, s.Mode),
		ViewerDelta: 1,
	})

	// Simulate the page load a real viewer performs after the API call.
	// Failures here are not fatal; the viewer is already counted.
	if _, err := s.Client.Get(ctx, pageURL); err != nil && ctx.Err() == nil {
		s.emit(ctx, events, models.Event{
			Log: fmt.Sprintf("⚠️ Page load failed from %s: %v", s.Proxy.Host, err),
		})
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	expire := time.NewTimer(s.Duration)
	defer expire.Stop()

	heartbeats := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := s.Client.Get(ctx, apiURL); err != nil {
				if ctx.Err() != nil {
					return
				}
				// Heartbeat failures never terminate the session
				s.emit(ctx, events, models.Event{
					Log: fmt.Sprintf("⚠️ Heartbeat failed from %s: %v", s.Proxy.Host, err),
				})
				continue
			}
			heartbeats++
			s.emit(ctx, events, models.Event{
				Log: fmt.Sprintf("💓 Heartbeat #%d from %s (%s)", heartbeats, s.Proxy.Host, channel),
			})

		case <-expire.C:
			minutes := int(s.Duration.Minutes())
			s.emit(ctx, events, models.Event{
				Log:         fmt.Sprintf("⏹️ Viewer session ended for %s (%d min, %d heartbeats)", channel, minutes, heartbeats),
				ViewerDelta: -1,
			})
			return
		}
	}
}

// emit delivers one event unless the session has been cancelled
func (s *Session) emit(ctx context.Context, events chan<- models.Event, ev models.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
