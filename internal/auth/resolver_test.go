package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
)

func TestResolver_Authenticate(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, _, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	repo := &mockUserRepo{
		findActiveByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			u := testUser()
			// 発行後に倉庫と権限が変わっても現在の登録内容を使う
			u.Warehouse = "osaka"
			u.Role = model.RoleAdmin
			return u, nil
		},
	}
	r := NewResolver(issuer, repo, time.Minute)

	p, err := r.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	want := model.Principal{UserID: 7, Username: "alice", Warehouse: "osaka", Role: model.RoleAdmin}
	if p != want {
		t.Errorf("principal = %+v, want %+v", p, want)
	}
}

func TestResolver_CachesPrincipal(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, _, _ := issuer.Issue(testUser())

	repo := &mockUserRepo{
		findActiveByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return testUser(), nil
		},
	}
	r := NewResolver(issuer, repo, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := r.Authenticate(context.Background(), token); err != nil {
			t.Fatalf("Authenticate #%d: %v", i, err)
		}
	}
	if repo.callCount() != 1 {
		t.Errorf("repository calls = %d, want 1", repo.callCount())
	}
}

func TestResolver_NoCacheWhenTTLZero(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, _, _ := issuer.Issue(testUser())

	repo := &mockUserRepo{
		findActiveByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return testUser(), nil
		},
	}
	r := NewResolver(issuer, repo, 0)

	r.Authenticate(context.Background(), token)
	r.Authenticate(context.Background(), token)
	if repo.callCount() != 2 {
		t.Errorf("repository calls = %d, want 2", repo.callCount())
	}
}

func TestResolver_Errors(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, _, _ := issuer.Issue(testUser())

	t.Run("user removed", func(t *testing.T) {
		r := NewResolver(issuer, &mockUserRepo{}, time.Minute)
		_, err := r.Authenticate(context.Background(), token)
		if !model.HasCode(err, model.ErrCodeUserNotFound) {
			t.Errorf("err = %v, want USER_NOT_FOUND", err)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mockUserRepo{
			findActiveByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
				return nil, errors.New("timeout")
			},
		}
		r := NewResolver(issuer, repo, time.Minute)
		_, err := r.Authenticate(context.Background(), token)
		if !model.HasCode(err, model.ErrCodeStorageUnavailable) {
			t.Errorf("err = %v, want STORAGE_UNAVAILABLE", err)
		}
	})

	t.Run("invalid token skips lookup", func(t *testing.T) {
		repo := &mockUserRepo{}
		r := NewResolver(issuer, repo, time.Minute)
		_, err := r.Authenticate(context.Background(), "garbage")
		if !model.HasCode(err, model.ErrCodeInvalidToken) {
			t.Errorf("err = %v, want INVALID_TOKEN", err)
		}
		if repo.callCount() != 0 {
			t.Errorf("repository calls = %d, want 0", repo.callCount())
		}
	})
}
