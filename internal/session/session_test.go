package session

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/bryansoph/taskflow/internal/account"
	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/store"
	"github.com/bryansoph/taskflow/types"
)

func newTestGate(t *testing.T) (*Gate, *account.Service) {
	t.Helper()
	docs := store.NewFileDocumentStore()
	err := docs.Initialize(map[string]string{
		"dataDir":        t.TempDir(),
		"dataFileFormat": "json",
	})
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	t.Cleanup(func() { _ = docs.Close() })

	accounts := account.NewService(docs, "taskflow.com")
	gate := NewGate(accounts, afero.NewMemMapFs(), ".taskflow/session.json")
	return gate, accounts
}

func seedAccount(t *testing.T, accounts *account.Service) models.Account {
	t.Helper()
	acc, err := accounts.Create(account.CreateInput{
		DisplayName: "Bryan Soph",
		Handle:      "bryansoph",
		Secret:      "s3cret",
		Role:        models.RoleManager,
	})
	if err != nil {
		t.Fatalf("seed account failed: %v", err)
	}
	return acc
}

func TestLoginWithBareHandle(t *testing.T) {
	gate, accounts := newTestGate(t)
	seeded := seedAccount(t, accounts)

	// A bare handle is completed with the domain before lookup.
	acc, err := gate.Login("bryansoph", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if acc.ID != seeded.ID {
		t.Errorf("logged in as %s, want %s", acc.ID, seeded.ID)
	}

	current, ok, err := gate.Current()
	if err != nil || !ok {
		t.Fatalf("Current = ok=%v err=%v, want a live session", ok, err)
	}
	if current.ID != seeded.ID {
		t.Errorf("restored session is %s, want %s", current.ID, seeded.ID)
	}
}

func TestLoginWrongSecret(t *testing.T) {
	gate, accounts := newTestGate(t)
	seedAccount(t, accounts)

	_, err := gate.Login("bryansoph", "wrong")
	if !types.HasCode(err, types.CodeInvalidCredential) {
		t.Fatalf("expected invalid-credential, got %v", err)
	}

	if _, ok, _ := gate.Current(); ok {
		t.Error("failed login must not leave a session behind")
	}
}

func TestLoginUnknownHandle(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := gate.Login("nobody", "whatever")
	if !types.HasCode(err, types.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCurrentTrustsStoredSession(t *testing.T) {
	gate, accounts := newTestGate(t)
	seeded := seedAccount(t, accounts)

	if _, err := gate.Login("bryansoph", "s3cret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Changing the secret after login does not invalidate the restored
	// session; it is trusted as stored until the next login.
	newSecret := "rotated"
	if err := accounts.Update(seeded.ID, account.UpdateFields{Secret: &newSecret}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	current, ok, err := gate.Current()
	if err != nil || !ok {
		t.Fatalf("Current = ok=%v err=%v", ok, err)
	}
	if current.ID != seeded.ID {
		t.Errorf("restored session is %s", current.ID)
	}
}

func TestLogout(t *testing.T) {
	gate, accounts := newTestGate(t)
	seedAccount(t, accounts)

	if _, err := gate.Login("bryansoph", "s3cret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := gate.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok, _ := gate.Current(); ok {
		t.Error("session survived logout")
	}

	// Logging out twice is still a success.
	if err := gate.Logout(); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}
