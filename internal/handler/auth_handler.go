// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/launchpad/internal/auth"
)

// LoginServiceInterface はログインハンドラーが必要とするサービスインターフェース。
type LoginServiceInterface interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// AuthHandler はログインのHTTPハンドラー。
type AuthHandler struct {
	service LoginServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service LoginServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userProfileResponse はログインユーザーのプロフィール。
type userProfileResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Warehouse string `json:"warehouse"`
	Role      string `json:"role"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      userProfileResponse `json:"user"`
}

// Login はユーザー名とパスワードでログインし、アクセストークンを返す。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
		User: userProfileResponse{
			Username:  result.User.Username,
			FullName:  result.User.FullName,
			Warehouse: result.User.Warehouse,
			Role:      string(result.User.Role),
		},
	})
}
