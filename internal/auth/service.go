// Package auth はパスワード認証、アクセストークンの発行・検証、主体の解決を提供する。
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/launchpad/internal/metrics"
	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// dummyHash は存在しないユーザーでも照合と同等の計算を行うためのハッシュ。
// ユーザーの存在有無を応答時間から推測されないようにする。
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$2Jw3o0BqzvDQ1xHjV1o8m7gq3sVQnTzYgYJ3cH6tE9Y"

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Service はログインのビジネスロジックを提供する。
type Service struct {
	users   repository.UserRepository
	tokens  *TokenIssuer
	metrics metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(users repository.UserRepository, tokens *TokenIssuer, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{users: users, tokens: tokens, metrics: collector}
}

// Login はユーザー名とパスワードを照合し、アクセストークンを発行する。
// ユーザーが存在しない・無効・パスワード不一致のいずれもINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" {
		return nil, model.NewMissingFieldError("username")
	}
	if password == "" {
		return nil, model.NewMissingFieldError("password")
	}

	user, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		s.metrics.RecordLogin("error")
		slog.Error("ログイン時のユーザー取得に失敗しました", slog.String("error", err.Error()))
		return nil, model.NewStorageUnavailableError()
	}

	if user == nil {
		VerifyPassword(password, dummyHash)
		s.metrics.RecordLogin("failure")
		return nil, model.NewInvalidCredentialsError()
	}
	if !VerifyPassword(password, user.PasswordHash) {
		s.metrics.RecordLogin("failure")
		slog.Info("ログインに失敗しました", slog.String("username", username))
		return nil, model.NewInvalidCredentialsError()
	}
	if IsLegacyHash(user.PasswordHash) {
		slog.Warn("SHA-256形式のパスワードハッシュが残っています。hash-passwordで再設定してください",
			slog.Int64("user_id", user.ID),
		)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, err
	}

	s.metrics.RecordLogin("success")
	slog.Info("ログインしました",
		slog.Int64("user_id", user.ID),
		slog.String("warehouse", user.Warehouse),
	)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
