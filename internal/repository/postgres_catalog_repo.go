package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/launchpad/internal/database"
	"github.com/hitoshi/launchpad/internal/model"
)

// PostgresClientRepo はPostgreSQLを使用したクライアントリポジトリ。
type PostgresClientRepo struct {
	db    *sql.DB
	retry database.RetryPolicy
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB, retry database.RetryPolicy) *PostgresClientRepo {
	return &PostgresClientRepo{db: db, retry: retry}
}

// ListByWarehouse は倉庫内の有効なクライアントを名前順で返す。
func (r *PostgresClientRepo) ListByWarehouse(ctx context.Context, warehouse string) ([]model.Client, error) {
	return database.Retry(ctx, r.retry, "clients.list_by_warehouse", func(ctx context.Context) ([]model.Client, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, name, warehouse
			 FROM clients
			 WHERE warehouse = $1 AND is_active = true
			 ORDER BY name ASC, id ASC`,
			warehouse,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}
		defer rows.Close()

		clients := []model.Client{}
		for rows.Next() {
			var c model.Client
			if err := rows.Scan(&c.ID, &c.Name, &c.Warehouse); err != nil {
				return nil, fmt.Errorf("failed to scan client: %w", err)
			}
			clients = append(clients, c)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate clients: %w", err)
		}
		return clients, nil
	})
}

// PostgresTaskRepo はPostgreSQLを使用した作業マスタリポジトリ。
type PostgresTaskRepo struct {
	db    *sql.DB
	retry database.RetryPolicy
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB, retry database.RetryPolicy) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db, retry: retry}
}

// ListByWarehouse は倉庫内の有効な作業を定義済み優先、名前順で返す。
func (r *PostgresTaskRepo) ListByWarehouse(ctx context.Context, warehouse string) ([]model.Task, error) {
	return database.Retry(ctx, r.retry, "tasks.list_by_warehouse", func(ctx context.Context) ([]model.Task, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, task_name, warehouse, is_predefined
			 FROM tasks
			 WHERE warehouse = $1 AND is_active = true
			 ORDER BY is_predefined DESC, task_name ASC, id ASC`,
			warehouse,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		defer rows.Close()

		tasks := []model.Task{}
		for rows.Next() {
			var t model.Task
			if err := rows.Scan(&t.ID, &t.Name, &t.Warehouse, &t.IsPredefined); err != nil {
				return nil, fmt.Errorf("failed to scan task: %w", err)
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate tasks: %w", err)
		}
		return tasks, nil
	})
}

// FindActive は倉庫内の有効な作業をIDで取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindActive(ctx context.Context, id int64, warehouse string) (*model.Task, error) {
	return database.Retry(ctx, r.retry, "tasks.find_active", func(ctx context.Context) (*model.Task, error) {
		t := &model.Task{}
		err := r.db.QueryRowContext(ctx,
			`SELECT id, task_name, warehouse, is_predefined
			 FROM tasks
			 WHERE id = $1 AND warehouse = $2 AND is_active = true`,
			id, warehouse,
		).Scan(&t.ID, &t.Name, &t.Warehouse, &t.IsPredefined)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find task: %w", err)
		}
		return t, nil
	})
}

// compile-time interface check
var (
	_ ClientRepository = (*PostgresClientRepo)(nil)
	_ TaskRepository   = (*PostgresTaskRepo)(nil)
)
