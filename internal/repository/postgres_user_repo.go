package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/launchpad/internal/database"
	"github.com/hitoshi/launchpad/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db    *sql.DB
	retry database.RetryPolicy
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB, retry database.RetryPolicy) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, retry: retry}
}

// FindActiveByUsername は有効なユーザーをユーザー名で取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	return database.Retry(ctx, r.retry, "users.find_active_by_username", func(ctx context.Context) (*model.User, error) {
		user := &model.User{}
		var role string
		err := r.db.QueryRowContext(ctx,
			`SELECT id, username, full_name, password_hash, warehouse, role, is_active, created_at
			 FROM users
			 WHERE username = $1 AND is_active = true`,
			username,
		).Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash,
			&user.Warehouse, &role, &user.IsActive, &user.CreatedAt)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find user by username: %w", err)
		}

		user.Role = model.Role(role)
		return user, nil
	})
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
