package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/accounts"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// AccountsHandler exposes the account pool's structural operations
type AccountsHandler struct {
	accounts *accounts.Manager
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(accts *accounts.Manager) *AccountsHandler {
	return &AccountsHandler{accounts: accts}
}

// List returns the full account collection
// GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.accounts.All())
}

// Create adds a new account to the pool
// POST /api/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var acct models.KickAccount
	if err := json.NewDecoder(r.Body).Decode(&acct); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(acct.Username) == "" {
		writeJSONError(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.accounts.Add(r.Context(), acct); err != nil {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}

	log.Info().Str("username", acct.Username).Msg("Account added")
	writeJSON(w, http.StatusCreated, models.APISuccess{Success: true, Message: "Account added"})
}

// Update applies a partial update to an account
// PATCH /api/accounts/{username}
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var updates models.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	found, err := h.accounts.Update(r.Context(), username, updates)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to persist account update")
		writeJSONError(w, http.StatusInternalServerError, "Failed to save accounts")
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, models.APISuccess{Success: true, Message: "Account updated"})
}

// Delete removes an account from the pool
// DELETE /api/accounts/{username}
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	found, err := h.accounts.Remove(r.Context(), username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to persist account removal")
		writeJSONError(w, http.StatusInternalServerError, "Failed to save accounts")
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "Account not found")
		return
	}

	log.Info().Str("username", username).Msg("Account removed")
	writeJSON(w, http.StatusOK, models.APISuccess{Success: true, Message: "Account removed"})
}
