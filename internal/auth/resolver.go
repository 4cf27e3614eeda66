package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/launchpad/internal/cache"
	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// Resolver はアクセストークンを検証し、トークンの利用者を現在の主体に解決する。
// 解決結果はユーザー名ごとに短時間キャッシュする。
type Resolver struct {
	tokens   *TokenIssuer
	users    repository.UserRepository
	cache    *cache.TTLCache[string, model.Principal]
	cacheTTL time.Duration
}

// NewResolver はResolverを生成する。cacheTTLが0以下の場合はキャッシュしない。
func NewResolver(tokens *TokenIssuer, users repository.UserRepository, cacheTTL time.Duration) *Resolver {
	r := &Resolver{
		tokens:   tokens,
		users:    users,
		cacheTTL: cacheTTL,
	}
	if cacheTTL > 0 {
		r.cache = cache.NewTTLCache[string, model.Principal]()
	}
	return r
}

// Authenticate はトークンを検証して主体を返す。
func (r *Resolver) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return model.Principal{}, err
	}
	return r.Resolve(ctx, claims)
}

// Resolve はクレームのユーザー名から現在の主体を解決する。
// 倉庫と権限はトークンではなくユーザーの現在の登録内容を使う。
// ユーザーが存在しないか無効化されている場合はUSER_NOT_FOUNDを返す。
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (model.Principal, error) {
	if p, ok := r.cache.Get(claims.Username); ok {
		return p, nil
	}

	user, err := r.users.FindActiveByUsername(ctx, claims.Username)
	if err != nil {
		slog.Error("主体の解決でユーザー取得に失敗しました", slog.String("error", err.Error()))
		return model.Principal{}, model.NewStorageUnavailableError()
	}
	if user == nil {
		return model.Principal{}, model.NewUserNotFoundError()
	}

	p := model.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Warehouse: user.Warehouse,
		Role:      user.Role,
	}
	r.cache.Set(claims.Username, p, r.cacheTTL)
	return p, nil
}
