package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/launchpad/internal/auth"
	"github.com/hitoshi/launchpad/internal/middleware"
	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/report"
)

// --- サービスのモック ---

type mockLoginService struct {
	loginFn func(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

func (m *mockLoginService) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

type mockCatalogService struct {
	listClientsFn func(ctx context.Context, p model.Principal) ([]model.Client, error)
	listTasksFn   func(ctx context.Context, p model.Principal) ([]model.Task, error)
}

func (m *mockCatalogService) ListClients(ctx context.Context, p model.Principal) ([]model.Client, error) {
	if m.listClientsFn != nil {
		return m.listClientsFn(ctx, p)
	}
	return nil, nil
}

func (m *mockCatalogService) ListTasks(ctx context.Context, p model.Principal) ([]model.Task, error) {
	if m.listTasksFn != nil {
		return m.listTasksFn(ctx, p)
	}
	return nil, nil
}

type mockTimerService struct {
	openFn      func(ctx context.Context, p model.Principal, clientID int64) (int64, error)
	closeFn     func(ctx context.Context, p model.Principal, recordID int64, task model.TaskRef) (*model.TimeRecord, error)
	cancelFn    func(ctx context.Context, p model.Principal, recordID int64) (bool, error)
	activeForFn func(ctx context.Context, p model.Principal) (*model.ActiveRecord, error)
	historyFn   func(ctx context.Context, p model.Principal, limit int) ([]model.TimeRecord, error)
}

func (m *mockTimerService) Open(ctx context.Context, p model.Principal, clientID int64) (int64, error) {
	if m.openFn != nil {
		return m.openFn(ctx, p, clientID)
	}
	return 0, nil
}

func (m *mockTimerService) Close(ctx context.Context, p model.Principal, recordID int64, task model.TaskRef) (*model.TimeRecord, error) {
	if m.closeFn != nil {
		return m.closeFn(ctx, p, recordID, task)
	}
	return nil, nil
}

func (m *mockTimerService) Cancel(ctx context.Context, p model.Principal, recordID int64) (bool, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, p, recordID)
	}
	return false, nil
}

func (m *mockTimerService) ActiveFor(ctx context.Context, p model.Principal) (*model.ActiveRecord, error) {
	if m.activeForFn != nil {
		return m.activeForFn(ctx, p)
	}
	return nil, nil
}

func (m *mockTimerService) History(ctx context.Context, p model.Principal, limit int) ([]model.TimeRecord, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, p, limit)
	}
	return nil, nil
}

type mockReportService struct {
	listFn func(ctx context.Context, p model.Principal, q report.Query) ([]model.ReportRecord, error)
}

func (m *mockReportService) List(ctx context.Context, p model.Principal, q report.Query) ([]model.ReportRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, p, q)
	}
	return nil, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- ヘルパー ---

var testPrincipal = model.Principal{UserID: 7, Username: "alice", Warehouse: "tokyo", Role: model.RoleUser}

// withTestPrincipal はリクエストに認証済み主体を注入する。
func withTestPrincipal(req *http.Request) *http.Request {
	return req.WithContext(middleware.ContextWithPrincipal(req.Context(), testPrincipal))
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
