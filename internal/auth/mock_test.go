package auth

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
)

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	mu    sync.Mutex
	calls int

	findActiveByUsernameFn func(ctx context.Context, username string) (*model.User, error)
}

func (m *mockUserRepo) FindActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.findActiveByUsernameFn != nil {
		return m.findActiveByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// loginMetrics はログイン結果のみ記録するテスト用コレクタ。
type loginMetrics struct {
	logins []string
}

func (m *loginMetrics) RecordLogin(result string) { m.logins = append(m.logins, result) }

func (m *loginMetrics) RecordTimerOperation(string, string) {}
func (m *loginMetrics) RecordTimerDuration(int64)           {}
func (m *loginMetrics) RecordHTTPStatus(int)                {}
func (m *loginMetrics) RecordRequestLatency(time.Duration)  {}
func (m *loginMetrics) RecordStoreRetry(string)             {}
