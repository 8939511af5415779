package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/accounts"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/storage"
)

// ConfigurationHandler exposes the raw proxy/user-agent/account blobs so
// the UI can edit them in place. Blobs travel base64-encoded.
type ConfigurationHandler struct {
	store    storage.ConfigStore
	accounts *accounts.Manager
}

// NewConfigurationHandler creates a new configuration handler
func NewConfigurationHandler(store storage.ConfigStore, accts *accounts.Manager) *ConfigurationHandler {
	return &ConfigurationHandler{store: store, accounts: accts}
}

type configurationResponse struct {
	Proxies     string `json:"proxies"`
	UserAgents  string `json:"uas"`
	Accounts    string `json:"accounts"`
	HasAccounts bool   `json:"hasAccounts"`
}

type configurationRequest struct {
	Proxies    string `json:"proxies"`
	UserAgents string `json:"uas"`
	Accounts   string `json:"accounts,omitempty"`
}

// Get returns the current configuration blobs
// GET /configuration
func (h *ConfigurationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	proxiesText, err := h.store.LoadProxies(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load proxies blob")
		writeJSONError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}
	uasText, err := h.store.LoadUserAgents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load user agents blob")
		writeJSONError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}

	accountsJSON, err := json.Marshal(h.accounts.All())
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal accounts")
		writeJSONError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}

	writeJSON(w, http.StatusOK, configurationResponse{
		Proxies:     base64.StdEncoding.EncodeToString([]byte(proxiesText)),
		UserAgents:  base64.StdEncoding.EncodeToString([]byte(uasText)),
		Accounts:    base64.StdEncoding.EncodeToString(accountsJSON),
		HasAccounts: h.accounts.ActiveCount() > 0,
	})
}

// Update replaces the configuration blobs. Only the account collection is
// reloaded into memory; proxy and user-agent lists are picked up on the
// next server start.
// POST /configuration
func (h *ConfigurationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()

	proxiesText, err := base64.StdEncoding.DecodeString(req.Proxies)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid proxies encoding")
		return
	}
	uasText, err := base64.StdEncoding.DecodeString(req.UserAgents)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid uas encoding")
		return
	}

	if err := h.store.SaveProxies(ctx, string(proxiesText)); err != nil {
		log.Error().Err(err).Msg("Failed to save proxies blob")
		writeJSONError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	if err := h.store.SaveUserAgents(ctx, string(uasText)); err != nil {
		log.Error().Err(err).Msg("Failed to save user agents blob")
		writeJSONError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}

	if req.Accounts != "" {
		accountsText, err := base64.StdEncoding.DecodeString(req.Accounts)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid accounts encoding")
			return
		}
		if err := saveAccountsBlob(ctx, h.store, accountsText); err != nil {
			log.Error().Err(err).Msg("Failed to save accounts blob")
			writeJSONError(w, http.StatusBadRequest, "Invalid accounts payload")
			return
		}
		h.accounts.Load(ctx)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// saveAccountsBlob validates the submitted account JSON before persisting
func saveAccountsBlob(ctx context.Context, store storage.ConfigStore, blob []byte) error {
	var accts []models.KickAccount
	if err := json.Unmarshal(blob, &accts); err != nil {
		return fmt.Errorf("parse accounts blob: %w", err)
	}
	return store.SaveAccounts(ctx, accts)
}
