package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/launchpad/internal/model"
)

// CatalogServiceInterface はクライアント・作業一覧のハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListClients(ctx context.Context, p model.Principal) ([]model.Client, error)
	ListTasks(ctx context.Context, p model.Principal) ([]model.Task, error)
}

// CatalogHandler は倉庫内のクライアントと作業を返すHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type catalogEntryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Warehouse string `json:"warehouse"`
}

// ListClients は主体の倉庫のクライアント一覧を返す。
// GET /api/clients
func (h *CatalogHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	clients, err := h.service.ListClients(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]catalogEntryResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, catalogEntryResponse{ID: c.ID, Name: c.Name, Warehouse: c.Warehouse})
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": out})
}

// ListTasks は主体の倉庫の作業一覧を返す。
// GET /api/tasks
func (h *CatalogHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]catalogEntryResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, catalogEntryResponse{ID: t.ID, Name: t.Name, Warehouse: t.Warehouse})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}
