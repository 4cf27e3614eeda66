// Package repository はデータ永続化のインターフェースとPostgreSQL実装を定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
)

var (
	// ErrClientNotFound は計測開始時に、指定クライアントが存在しない・無効・別倉庫のいずれかである場合に返る。
	ErrClientNotFound = errors.New("client not found in warehouse")

	// ErrTimerAlreadyRunning は同じユーザーに未終了の計測が既に存在する場合に返る。
	ErrTimerAlreadyRunning = errors.New("timer already running for user")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindActiveByUsername は有効なユーザーをユーザー名で取得する。
	// 見つからない場合・無効化されている場合はnilを返す。
	FindActiveByUsername(ctx context.Context, username string) (*model.User, error)
}

// ClientRepository はクライアントデータの参照インターフェース。
type ClientRepository interface {
	// ListByWarehouse は倉庫内の有効なクライアントを名前順で返す。
	ListByWarehouse(ctx context.Context, warehouse string) ([]model.Client, error)
}

// TaskRepository は作業マスタの参照インターフェース。
type TaskRepository interface {
	// ListByWarehouse は倉庫内の有効な作業を定義済み優先、名前順で返す。
	ListByWarehouse(ctx context.Context, warehouse string) ([]model.Task, error)

	// FindActive は倉庫内の有効な作業をIDで取得する。見つからない場合はnilを返す。
	FindActive(ctx context.Context, id int64, warehouse string) (*model.Task, error)
}

// StopParams は計測停止の条件と書き込み内容。
type StopParams struct {
	RecordID int64
	OwnerID  int64
	EndedAt  time.Time
	Task     model.TaskRef
}

// TimeRecordRepository は計測区間の永続化インターフェース。
// 更新・削除はすべて「end_time IS NULL」を条件とする単一文で行う。
type TimeRecordRepository interface {
	// Start はクライアントが倉庫内で有効な場合に限り、未終了の区間を作成してIDを返す。
	// クライアントが条件を満たさない場合はErrClientNotFound、
	// 未終了の区間が既にある場合はErrTimerAlreadyRunningを返す。
	Start(ctx context.Context, ownerID, clientID int64, warehouse string, startedAt time.Time) (int64, error)

	// Stop は所有者の未終了区間を確定する。該当がなければnilを返す。
	Stop(ctx context.Context, params StopParams) (*model.TimeRecord, error)

	// Cancel は所有者の未終了区間を削除し、削除したかどうかを返す。
	Cancel(ctx context.Context, recordID, ownerID int64) (bool, error)

	// FindActiveByUser はユーザーの未終了区間を返す。なければnilを返す。
	FindActiveByUser(ctx context.Context, ownerID int64) (*model.TimeRecord, error)

	// ListByUser は倉庫内でのユーザーの区間を開始時刻の降順で最大limit件返す。
	ListByUser(ctx context.Context, ownerID int64, warehouse string, limit int) ([]model.TimeRecord, error)

	// ListForReport はレポート条件に一致する区間を開始時刻の降順で返す。
	ListForReport(ctx context.Context, filter model.ReportFilter) ([]model.ReportRecord, error)
}
