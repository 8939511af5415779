package storage

import (
	"context"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// ConfigStore persists the raw configuration blobs (proxy list, user-agent
// list) and the account collection. Loads of missing data return empty
// values, not errors; saves replace the whole blob.
type ConfigStore interface {
	LoadProxies(ctx context.Context) (string, error)
	SaveProxies(ctx context.Context, text string) error

	LoadUserAgents(ctx context.Context) (string, error)
	SaveUserAgents(ctx context.Context, text string) error

	LoadAccounts(ctx context.Context) ([]models.KickAccount, error)
	SaveAccounts(ctx context.Context, accounts []models.KickAccount) error
}
