package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/viewer"
)

// Envelope event names, matching the UI protocol
const (
	eventViewerStats = "viewerStats"
	eventTestEnd     = "testEnd"
	eventStartTest   = "startViewerTest"
	eventStopTest    = "stopViewerTest"
)

// envelope is the wire format for both directions of the telemetry channel
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSHandler bridges the orchestrator's event stream to a browser over a
// websocket. One connection drives at most one run at a time; a dropped
// connection stops the run.
type WSHandler struct {
	orchestrator *viewer.Orchestrator
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a websocket handler for the given orchestrator
func NewWSHandler(orch *viewer.Orchestrator, allowedOrigin string) *WSHandler {
	return &WSHandler{
		orchestrator: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Serve upgrades the connection and runs the read loop
// GET /ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	// gorilla allows a single concurrent writer, so every outbound message
	// goes through this channel and one writer goroutine. done is closed on
	// disconnect; sends after that are dropped, which lets a forwarding
	// goroutine finish draining a run without blocking or panicking.
	outbound := make(chan envelope, 64)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case env := <-outbound:
				if err := conn.WriteJSON(env); err != nil {
					log.Debug().Err(err).Msg("Websocket write failed")
				}
			case <-done:
				return
			}
		}
	}()

	send := func(event string, data interface{}) {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("Failed to marshal outbound event")
			return
		}
		select {
		case outbound <- envelope{Event: event, Data: raw}:
		case <-done:
		}
	}

	totalConnections := h.orchestrator.TotalProxies()
	availableAccounts := h.orchestrator.AvailableAccounts()
	zero := 0
	send(eventViewerStats, models.Event{
		Log:               "🎥 Connected to Kick Viewer Tester.",
		ActiveViewers:     &zero,
		TotalConnections:  &totalConnections,
		AvailableAccounts: &availableAccounts,
	})

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			break
		}

		switch env.Event {
		case eventStartTest:
			var req models.ViewerTestRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				send(eventViewerStats, models.Event{Log: "❌ Invalid test request"})
				continue
			}

			events, err := h.orchestrator.Start(req)
			if err != nil {
				send(eventViewerStats, models.Event{Log: "❌ " + err.Error()})
				continue
			}

			// Forward the whole run; drains to completion even if the
			// socket dies mid-run so session goroutines never block.
			go func() {
				for ev := range events {
					send(eventViewerStats, ev)
					if ev.TestEnded {
						send(eventTestEnd, struct{}{})
					}
				}
			}()

		case eventStopTest:
			h.orchestrator.Stop()

		default:
			log.Debug().Str("event", env.Event).Msg("Ignoring unknown websocket event")
		}
	}

	// disconnect is an implicit stop
	h.orchestrator.Stop()
	close(done)
	conn.Close()

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Client disconnected")
}
