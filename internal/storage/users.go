package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"momoledger/internal/core"
)

// CreateUser inserts one account. A duplicate username surfaces as
// core.ErrUsernameTaken with no row created.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string, role core.Role) (core.User, error) {
	var (
		id int64
		ts string
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role)
		 VALUES (?, ?, ?)
		 RETURNING id, created_at`,
		username, passwordHash, string(role),
	).Scan(&id, &ts)
	if err != nil {
		classified := classifyConstraint(err)
		if errors.Is(classified, core.ErrConflict) {
			return core.User{}, core.ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", classified)
	}

	createdAt, err := parseTimestamp(ts)
	if err != nil {
		return core.User{}, storageErr(err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username, "role", role)

	return core.User{ID: id, Username: username, Role: role, CreatedAt: createdAt}, nil
}

// CredentialByUsername returns the account and its stored password hash.
// Unknown usernames surface as core.ErrReferential.
func (r *SQLiteRepository) CredentialByUsername(ctx context.Context, username string) (core.User, string, error) {
	var (
		user core.User
		hash string
		role string
		ts   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &hash, &role, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", fmt.Errorf("%w: user %q", core.ErrReferential, username)
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user %q: %w", username, storageErr(err))
	}

	user.Role = core.Role(role)
	if user.CreatedAt, err = parseTimestamp(ts); err != nil {
		return core.User{}, "", storageErr(err)
	}
	return user, hash, nil
}

// ListAgents returns all agent accounts ordered alphabetically by
// username.
func (r *SQLiteRepository) ListAgents(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, role, created_at
		 FROM users WHERE role = ? ORDER BY username`,
		string(core.RoleAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", storageErr(err))
	}
	defer rows.Close()

	var agents []core.User
	for rows.Next() {
		var (
			u    core.User
			role string
			ts   string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role, &ts); err != nil {
			return nil, fmt.Errorf("scan agent: %w", storageErr(err))
		}
		u.Role = core.Role(role)
		if u.CreatedAt, err = parseTimestamp(ts); err != nil {
			return nil, storageErr(err)
		}
		agents = append(agents, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agents: %w", storageErr(err))
	}
	return agents, nil
}
