// Package account implements the account roster: login lookup, admin
// mutation, deterministic id derivation, and first-run seeding.
package account

import (
	"strings"
	"time"

	"github.com/bryansoph/taskflow/models"
	"github.com/bryansoph/taskflow/store"
	"github.com/bryansoph/taskflow/types"
)

// Collection is the accounts collection name.
const Collection = "users"

// idPrefix is the fixed literal tag prefixing every derived account id.
const idPrefix = "user_"

// NormalizeHandle lower-cases and trims a raw login handle, appending
// "@<domain>" when the handle carries no separator. Every lookup and write
// goes through this so "Bryan" and "bryan@taskflow.com" address the same
// account slot.
func NormalizeHandle(raw, domain string) string {
	handle := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(handle, "@") {
		handle = handle + "@" + domain
	}
	return handle
}

// DeriveID maps a normalized handle to the account's identity key: every
// rune outside [a-z0-9] is stripped and the result is prefixed with
// "user_". The derivation is pure, so re-deriving is idempotent. Distinct
// raw handles that strip to the same string collide onto one account slot;
// that is an accepted limitation of the scheme, not a defect to detect.
func DeriveID(normalizedHandle string) string {
	var b strings.Builder
	b.WriteString(idPrefix)
	for _, r := range normalizedHandle {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Service exposes the account roster over a document store.
type Service struct {
	docs   store.DocumentStore
	domain string
}

// NewService creates an account service. domain is the suffix applied to
// bare handles.
func NewService(docs store.DocumentStore, domain string) *Service {
	return &Service{docs: docs, domain: domain}
}

func decodeAccount(doc store.Document) (models.Account, error) {
	var acc models.Account
	if err := store.Decode(doc, &acc); err != nil {
		return models.Account{}, types.NewStoreError("malformed account record", err)
	}
	if acc.ID == "" {
		acc.ID = doc.ID
	}
	return acc, nil
}

// FindByHandle resolves a login handle to its account after normalization.
// It is an exact-match lookup used only for login; partial matches are
// never returned.
func (s *Service) FindByHandle(rawHandle string) (models.Account, error) {
	handle := NormalizeHandle(rawHandle, s.domain)
	docs, err := s.docs.QueryEquals(Collection, "email", handle, 1)
	if err != nil {
		return models.Account{}, err
	}
	if len(docs) == 0 {
		return models.Account{}, types.NewNotFound("user not found", map[string]any{"handle": handle})
	}
	return decodeAccount(docs[0])
}

// List returns the full roster, ordered by id.
func (s *Service) List() ([]models.Account, error) {
	docs, err := s.docs.QueryEquals(Collection, "", nil, 0)
	if err != nil {
		return nil, err
	}
	roster := make([]models.Account, 0, len(docs))
	for _, doc := range docs {
		acc, err := decodeAccount(doc)
		if err != nil {
			return nil, err
		}
		roster = append(roster, acc)
	}
	return roster, nil
}

// Watch returns a live feed of roster snapshots for assignment pickers and
// the admin table. stop unsubscribes.
func (s *Service) Watch() (snapshots <-chan []models.Account, stop func(), err error) {
	sub, err := s.docs.Subscribe(Collection)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan []models.Account, 1)
	go func() {
		defer close(out)
		for docs := range sub.C() {
			roster := make([]models.Account, 0, len(docs))
			ok := true
			for _, doc := range docs {
				acc, err := decodeAccount(doc)
				if err != nil {
					ok = false
					break
				}
				roster = append(roster, acc)
			}
			if !ok {
				continue
			}
			select {
			case out <- roster:
			default:
				select {
				case <-out:
				default:
				}
				out <- roster
			}
		}
	}()
	return out, sub.Close, nil
}

// CreateInput carries the administrator-supplied fields for a new account.
type CreateInput struct {
	DisplayName string
	Handle      string
	Secret      string
	Role        models.Role
}

// Create writes a new account under its deterministic id. Writing by key
// means creating twice with the same handle overwrites the same slot
// instead of duplicating it.
func (s *Service) Create(input CreateInput) (models.Account, error) {
	handle := NormalizeHandle(input.Handle, s.domain)
	acc := models.Account{
		ID:               DeriveID(handle),
		DisplayName:      strings.TrimSpace(input.DisplayName),
		LoginHandle:      handle,
		CredentialSecret: input.Secret,
		Role:             input.Role,
		CreatedAt:        time.Now().UTC(),
	}
	if err := models.ValidateStruct(acc); err != nil {
		return models.Account{}, types.NewValidationError(err.Error(), nil)
	}
	fields, err := store.Encode(acc)
	if err != nil {
		return models.Account{}, types.NewStoreError("encode account", err)
	}
	if err := s.docs.SetAtKey(Collection, acc.ID, fields); err != nil {
		return models.Account{}, err
	}
	return acc, nil
}

// UpdateFields is the administrator-editable subset of an account. Nil
// pointers leave the stored value untouched.
type UpdateFields struct {
	DisplayName *string
	Handle      *string
	Secret      *string
	Role        *models.Role
}

// Update merge-patches an account. The id is stable: editing the handle
// does not re-derive it, matching the original system's admin edit.
func (s *Service) Update(id string, fields UpdateFields) error {
	patch := map[string]any{}
	if fields.DisplayName != nil {
		patch["name"] = strings.TrimSpace(*fields.DisplayName)
	}
	if fields.Handle != nil {
		patch["email"] = NormalizeHandle(*fields.Handle, s.domain)
	}
	if fields.Secret != nil {
		patch["password"] = *fields.Secret
	}
	if fields.Role != nil {
		if *fields.Role != models.RoleManager && *fields.Role != models.RoleEmployee {
			return types.NewValidationError("role must be manager or employee", map[string]any{"role": string(*fields.Role)})
		}
		patch["role"] = string(*fields.Role)
	}
	if len(patch) == 0 {
		return nil
	}
	return s.docs.Update(Collection, id, patch)
}

// Delete removes an account. Deleting the caller's own account is refused
// before any store mutation; an account is never self-deleted by its
// holder.
func (s *Service) Delete(id, callerID string) error {
	if id == callerID {
		return types.NewUnauthorized("cannot delete your own account", map[string]any{"id": id})
	}
	return s.docs.Delete(Collection, id)
}

// EnsureSeeded populates an empty roster with the configured seed accounts
// and returns how many were written. The probe-then-write is tolerant of a
// concurrent seeder: writes are keyed by deterministic id, so running the
// seed twice lands on the same slots instead of duplicating accounts.
// Seeds with an empty secret are skipped so no credential needs to ship in
// a committed config file.
func (s *Service) EnsureSeeded(seeds []types.SeedAccount) (int, error) {
	existing, err := s.docs.QueryEquals(Collection, "", nil, 1)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	written := 0
	for _, seed := range seeds {
		if seed.Secret == "" {
			continue
		}
		_, err := s.Create(CreateInput{
			DisplayName: seed.Name,
			Handle:      seed.Handle,
			Secret:      seed.Secret,
			Role:        models.Role(seed.Role),
		})
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// AssigneeLabel resolves assignee ids against the roster for display. Ids
// with no matching account resolve to nothing; when no id resolves the
// label is "Unassigned", never an error.
func AssigneeLabel(roster []models.Account, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, acc := range roster {
			if acc.ID == id {
				names = append(names, acc.DisplayName)
				break
			}
		}
	}
	if len(names) == 0 {
		return "Unassigned"
	}
	return strings.Join(names, ", ")
}
