package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// levelより低いレベルのログは出力しない。
func Setup(w io.Writer, level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, level slog.Leveler) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, level))
}

// MaskSecret は秘密値の先頭4文字だけを残して残りを伏せる。
// 8文字未満の値はすべて伏せる。
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) < 8 {
		return "****"
	}
	return value[:4] + "****"
}

// MaskAuthorization はAuthorizationヘッダー値を伏せ字にする。
// 認証方式（Bearer）は残す。
func MaskAuthorization(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return MaskSecret(scheme)
	}
	return scheme + " " + MaskSecret(strings.TrimSpace(token))
}
