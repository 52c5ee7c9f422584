// Package session implements the auth gate: resolving a login attempt to
// an account and persisting the session across process restarts.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/types"
)

// Gate authenticates logins and owns the durable session slot: a JSON file
// holding the serialized account of whoever is signed in.
type Gate struct {
	accounts *account.Service
	fs       afero.Fs
	path     string
}

// NewGate creates a gate persisting sessions at path on fs. Tests pass an
// in-memory filesystem.
func NewGate(accounts *account.Service, fs afero.Fs, path string) *Gate {
	return &Gate{accounts: accounts, fs: fs, path: path}
}

// Login resolves handle and secret to an account and persists the session.
// The handle is normalized before lookup. The secret check is plain
// equality against the stored value; that is the source system's contract
// (a documented weakness), kept so existing account records keep working.
// A hardened deployment would swap a salted-hash comparison in behind this
// same signature.
func (g *Gate) Login(handle, secret string) (models.Account, error) {
	acc, err := g.accounts.FindByHandle(handle)
	if err != nil {
		return models.Account{}, err
	}
	if acc.CredentialSecret != secret {
		return models.Account{}, types.NewInvalidCredential("incorrect password")
	}
	if err := g.save(acc); err != nil {
		return models.Account{}, err
	}
	return acc, nil
}

// Logout clears the session slot. It always succeeds: a missing slot is
// already the logged-out state.
func (g *Gate) Logout() error {
	if err := g.fs.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return types.NewStoreError("clear session", err)
	}
	return nil
}

// Current restores the persisted session, if any. The stored account is
// trusted as-is without re-validating the secret (trust-on-restore); the
// next login replaces it.
func (g *Gate) Current() (models.Account, bool, error) {
	data, err := afero.ReadFile(g.fs, g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Account{}, false, nil
		}
		return models.Account{}, false, types.NewStoreError("read session", err)
	}
	var acc models.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return models.Account{}, false, types.NewStoreError("malformed session record", err)
	}
	return acc, true, nil
}

func (g *Gate) save(acc models.Account) error {
	data, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return types.NewStoreError("serialize session", err)
	}
	dir := filepath.Dir(g.path)
	if dir != "." && dir != "" {
		if err := g.fs.MkdirAll(dir, 0o755); err != nil {
			return types.NewStoreError("create session directory", fmt.Errorf("mkdir %s: %w", dir, err))
		}
	}
	if err := afero.WriteFile(g.fs, g.path, data, 0o600); err != nil {
		return types.NewStoreError("write session", err)
	}
	return nil
}
