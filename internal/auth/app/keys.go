package app

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/verticelabs/authcore/pkg/cryptox"
	"github.com/verticelabs/authcore/pkg/jwtx"
)

// ErrNoSigningKey is returned outside dev when no signing key is configured.
var ErrNoSigningKey = errors.New("AUTH_SIGNING_KEY or AUTH_SIGNING_KEY_FILE is required")

// LoadSigningKey returns the HS256 key for access tokens.
//
// Sources, first match wins:
//   - AUTH_SIGNING_KEY: the raw key.
//   - AUTH_SIGNING_KEY_FILE: a base64 key, generated on first start. When
//     AUTH_MASTER_KEY_FILE is set the file holds the key sealed under it.
//   - neither: in dev, a random key kept in memory only. Every restart
//     invalidates all issued access tokens. Other environments fail.
func LoadSigningKey(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SigningKey != "" {
		if len(cfg.SigningKey) < jwtx.MinKeySize {
			return nil, fmt.Errorf("AUTH_SIGNING_KEY: %w", jwtx.ErrWeakKey)
		}
		return []byte(cfg.SigningKey), nil
	}

	if cfg.SigningKeyFile == "" {
		if cfg.Env != "" && cfg.Env != "dev" {
			return nil, fmt.Errorf("ENV=%s: %w", cfg.Env, ErrNoSigningKey)
		}
		logger.Warn("no signing key configured, using an ephemeral key")
		logger.Warn("all existing tokens are now invalid due to key rotation on startup")
		return randomKey()
	}

	var master []byte
	if cfg.MasterKeyFile != "" {
		b, err := os.ReadFile(filepath.Clean(cfg.MasterKeyFile))
		if err != nil {
			return nil, fmt.Errorf("read master key: %w", err)
		}
		master = []byte(strings.TrimSpace(string(b)))
	}

	key, err := readKeyFile(cfg.SigningKeyFile, master)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("generating signing key", "path", cfg.SigningKeyFile, "sealed", master != nil)
		return createKeyFile(cfg.SigningKeyFile, master)
	}
	if err != nil {
		return nil, err
	}
	if len(key) < jwtx.MinKeySize {
		return nil, fmt.Errorf("signing key file: %w", jwtx.ErrWeakKey)
	}
	return key, nil
}

func readKeyFile(path string, master []byte) ([]byte, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("decode signing key file: %w", err)
	}
	if master == nil {
		return raw, nil
	}

	key, err := cryptox.Open(master, raw)
	if err != nil {
		return nil, fmt.Errorf("unseal signing key: %w", err)
	}
	return key, nil
}

func createKeyFile(path string, master []byte) ([]byte, error) {
	key, err := randomKey()
	if err != nil {
		return nil, err
	}

	stored := key
	if master != nil {
		if stored, err = cryptox.Seal(master, key); err != nil {
			return nil, fmt.Errorf("seal signing key: %w", err)
		}
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(stored)), 0o600); err != nil {
		return nil, fmt.Errorf("write signing key: %w", err)
	}
	return key, nil
}

func randomKey() ([]byte, error) {
	key := make([]byte, 2*jwtx.MinKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

// LoadPepper installs the password pepper from AUTH_PEPPER or the pepper
// file.
func LoadPepper(cfg Config) error {
	if cfg.Pepper != "" {
		cryptox.SetPepper(cfg.Pepper)
		return nil
	}
	return cryptox.LoadPepperFile(cfg.PepperFile)
}
