// Package security はアプリケーションのセキュリティ機能を提供する。
//
// LabelSanitizer は利用者が自由入力した作業名からマークアップを除去し、
// プレーンテキストとして保存できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// LabelSanitizer は自由入力ラベルのサニタイズ機能のインターフェースを定義する。
type LabelSanitizer interface {
	// Clean は全てのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script, styleなどの要素は中身ごと除去される。
	Clean(raw string) string
}

type labelSanitizer struct {
	policy *bluemonday.Policy
}

// NewLabelSanitizer はbluemondayのStrictPolicyを使うLabelSanitizerを生成する。
func NewLabelSanitizer() LabelSanitizer {
	return &labelSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はラベルをプレーンテキストに正規化する。
// StrictPolicyはテキストをエスケープして返すため、保存前に元の文字へ戻す。
func (s *labelSanitizer) Clean(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
