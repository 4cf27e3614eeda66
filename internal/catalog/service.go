// Package catalog は倉庫ごとのクライアントと作業マスタの参照を提供する。
package catalog

import (
	"context"
	"log/slog"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// Service はマスタ参照のサービス層。
type Service struct {
	clients repository.ClientRepository
	tasks   repository.TaskRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clients repository.ClientRepository, tasks repository.TaskRepository) *Service {
	return &Service{clients: clients, tasks: tasks}
}

// ListClients は主体の倉庫の有効なクライアントを返す。
func (s *Service) ListClients(ctx context.Context, p model.Principal) ([]model.Client, error) {
	clients, err := s.clients.ListByWarehouse(ctx, p.Warehouse)
	if err != nil {
		return nil, storageFailure("clients", p, err)
	}
	return clients, nil
}

// ListTasks は主体の倉庫の有効な作業を定義済み優先で返す。
func (s *Service) ListTasks(ctx context.Context, p model.Principal) ([]model.Task, error) {
	tasks, err := s.tasks.ListByWarehouse(ctx, p.Warehouse)
	if err != nil {
		return nil, storageFailure("tasks", p, err)
	}
	return tasks, nil
}

func storageFailure(resource string, p model.Principal, err error) error {
	slog.Error("マスタ取得でストアエラーが発生しました",
		slog.String("resource", resource),
		slog.String("warehouse", p.Warehouse),
		slog.String("error", err.Error()),
	)
	return model.NewStorageUnavailableError()
}
