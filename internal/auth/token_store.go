package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

const tokenFilePrefix = "msgraph-"
const tokenFileSuffix = ".token"

// ErrNoToken is returned when no token is stored for an account
var ErrNoToken = errors.New("no token stored")

var accountNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateAccountName ensures account names can be used as file name parts
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// tokenFile is the on-disk format. The id_token is kept next to the OAuth
// token because oauth2.Token does not serialize its extra fields.
type tokenFile struct {
	Token   *oauth2.Token `json:"token"`
	IDToken string        `json:"id_token,omitempty"`
}

// TokenStore persists one token file per account in a directory
type TokenStore struct {
	dir string
	mu  sync.Mutex
}

// NewTokenStore creates a store rooted at dir
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

// DefaultTokenStore returns the store in the user cache directory
func DefaultTokenStore() *TokenStore {
	return NewTokenStore(filepath.Join(userCacheDir(), "graphplanner"))
}

// Dir returns the directory tokens are stored in
func (s *TokenStore) Dir() string {
	return s.dir
}

// Path returns the token file path of an account
func (s *TokenStore) Path(account string) string {
	return filepath.Join(s.dir, tokenFilePrefix+account+tokenFileSuffix)
}

// Has reports whether a token file exists for the account
func (s *TokenStore) Has(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(s.Path(account))
	return err == nil
}

// Load reads the stored token of an account
func (s *TokenStore) Load(account string) (*oauth2.Token, error) {
	tf, err := s.read(account)
	if err != nil {
		return nil, err
	}
	return tf.Token, nil
}

// LoadIDToken returns the raw id_token stored for an account, if any
func (s *TokenStore) LoadIDToken(account string) (string, error) {
	tf, err := s.read(account)
	if err != nil {
		return "", err
	}
	return tf.IDToken, nil
}

func (s *TokenStore) read(account string) (*tokenFile, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(account))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.Path(account), err)
	}
	if tf.Token == nil {
		return nil, fmt.Errorf("invalid token file %s: no token", s.Path(account))
	}
	return &tf, nil
}

// Save writes the token of an account with 0600 permissions. An id_token in
// the token's extra fields replaces the stored one; otherwise the previous
// id_token is kept.
func (s *TokenStore) Save(account string, tok *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if tok == nil {
		return fmt.Errorf("token is nil")
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		if prev, err := s.LoadIDToken(account); err == nil {
			idToken = prev
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(tokenFile{Token: tok, IDToken: idToken}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(account)); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the token of an account. Deleting a missing token is not an error.
func (s *TokenStore) Delete(account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(account)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Accounts lists the accounts that have a stored token, sorted by name
func (s *TokenStore) Accounts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, tokenFilePrefix) || !strings.HasSuffix(name, tokenFileSuffix) {
			continue
		}
		account := strings.TrimSuffix(strings.TrimPrefix(name, tokenFilePrefix), tokenFileSuffix)
		if validateAccountName(account) == nil {
			accounts = append(accounts, account)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache")
	}
	return os.TempDir()
}
