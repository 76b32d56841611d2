package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

const userColumns = `id, email, role, status, first_name, last_name, created_at, created_by, updated_at, updated_by`

var updatableUserColumns = map[string]string{
	"role":      "role",
	"status":    "status",
	"firstName": "first_name",
	"lastName":  "last_name",
	"updatedAt": "updated_at",
	"updatedBy": "updated_by",
}

// RoleOf resolves a principal identity to its role.
func (s *Store) RoleOf(ctx context.Context, identity string) (string, error) {
	u, err := s.GetUserByEmail(ctx, identity)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// IsActive reports whether a principal's account is active.
func (s *Store) IsActive(ctx context.Context, identity string) (bool, error) {
	u, err := s.GetUserByEmail(ctx, identity)
	if err != nil {
		return false, err
	}
	return u.Status == models.UserStatusActive, nil
}

// ResolveMany looks up existence, account status, and role for a set of
// candidate identities. Lookups run concurrently and all join before the
// result is returned; an unknown identity yields an entry with Exists false
// rather than an error.
func (s *Store) ResolveMany(ctx context.Context, identities []string) (map[string]models.DirectoryEntry, error) {
	entries := make(map[string]models.DirectoryEntry, len(identities))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, identity := range identities {
		wg.Add(1)
		go func(identity string) {
			defer wg.Done()
			u, err := s.GetUserByEmail(ctx, identity)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, models.ErrNotFound):
				entries[identity] = models.DirectoryEntry{}
			case err != nil:
				if firstErr == nil {
					firstErr = err
				}
			default:
				entries[identity] = models.DirectoryEntry{
					Exists: true,
					Active: u.Status == models.UserStatusActive,
					Role:   u.Role,
				}
			}
		}(identity)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return entries, nil
}

// GetUserByEmail fetches a principal by identity.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row, email)
}

// GetUser fetches a principal by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, id)
}

// ListUsers returns every known principal, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows, "")
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser persists a new principal.
func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users(`+userColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Role, u.Status, u.FirstName, u.LastName, u.CreatedAt, u.CreatedBy, u.UpdatedAt, u.UpdatedBy)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUserFields applies a field map to a principal record.
func (s *Store) UpdateUserFields(ctx context.Context, id string, fields map[string]any) (models.User, error) {
	if len(fields) == 0 {
		return models.User{}, fmt.Errorf("no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := updatableUserColumns[name]; !ok {
			return models.User{}, fmt.Errorf("unknown user field %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	assignments := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		assignments = append(assignments, updatableUserColumns[name]+" = ?")
		args = append(args, fields[name])
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

// EnsureUser returns the principal for an identity, creating a fresh active
// record with the given role on first sight.
func (s *Store) EnsureUser(ctx context.Context, email, role string) (models.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u = models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return models.User{}, err
	}
	s.logger.Info("auto-created user", slog.String("email", email), slog.String("role", role))
	return u, nil
}

func scanUser(row rowScanner, key string) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Role, &u.Status, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.CreatedBy, &u.UpdatedAt, &u.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
