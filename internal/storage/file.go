package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

// File names inside the data directory
const (
	proxiesFile    = "proxies.txt"
	userAgentsFile = "uas.txt"
	accountsFile   = "accounts.json"
)

// FileStore keeps the configuration blobs as plain files in a data
// directory. This is the default backend.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a file store rooted at dataDir, creating the
// directory if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

func (s *FileStore) readFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func (s *FileStore) writeFile(name, text string) error {
	if err := os.WriteFile(filepath.Join(s.dataDir, name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) LoadProxies(ctx context.Context) (string, error) {
	return s.readFile(proxiesFile)
}

func (s *FileStore) SaveProxies(ctx context.Context, text string) error {
	return s.writeFile(proxiesFile, text)
}

func (s *FileStore) LoadUserAgents(ctx context.Context) (string, error) {
	return s.readFile(userAgentsFile)
}

func (s *FileStore) SaveUserAgents(ctx context.Context, text string) error {
	return s.writeFile(userAgentsFile, text)
}

func (s *FileStore) LoadAccounts(ctx context.Context) ([]models.KickAccount, error) {
	text, err := s.readFile(accountsFile)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	var accounts []models.KickAccount
	if err := json.Unmarshal([]byte(text), &accounts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", accountsFile, err)
	}
	return accounts, nil
}

func (s *FileStore) SaveAccounts(ctx context.Context, accounts []models.KickAccount) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	return s.writeFile(accountsFile, string(data))
}
