package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
)

// withPrincipal はリクエストに認証済み主体を注入する。
func withPrincipal(req *http.Request, userID int64, username string) *http.Request {
	p := model.Principal{UserID: userID, Username: username, Warehouse: "tokyo", Role: model.RoleUser}
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

// mockAuthenticator はAuthenticatorのテスト用モック。
type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (model.Principal, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return model.Principal{}, model.NewInvalidTokenError()
}

// statusMetrics はHTTPメトリクスのみ記録するテスト用コレクタ。
type statusMetrics struct {
	mu        sync.Mutex
	statuses  []int
	latencies int
}

func (m *statusMetrics) RecordHTTPStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, code)
}

func (m *statusMetrics) RecordRequestLatency(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *statusMetrics) RecordTimerOperation(string, string) {}
func (m *statusMetrics) RecordTimerDuration(int64)           {}
func (m *statusMetrics) RecordLogin(string)                  {}
func (m *statusMetrics) RecordStoreRetry(string)             {}
