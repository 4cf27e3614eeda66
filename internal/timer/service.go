// Package timer は計測区間（タイマー）の開始・停止・取消・照会のドメインロジックを提供する。
//
// 状態はすべてレコードストアにあり、このパッケージはプロセス内で共有状態を持たない。
// 停止と取消は「end_time IS NULL」を条件とする単一の条件付き文としてストアに委ね、
// 同時実行時の二重停止や停止と取消の競合はストアの原子性で解決する。
package timer

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/launchpad/internal/clock"
	"github.com/hitoshi/launchpad/internal/metrics"
	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
	"github.com/hitoshi/launchpad/internal/security"
)

// MaxLabelLength は自由入力の作業名の最大文字数。
const MaxLabelLength = 255

// 操作名。ログとメトリクスのラベルに使う。
const (
	OpOpen    = "open"
	OpClose   = "close"
	OpCancel  = "cancel"
	OpActive  = "active"
	OpHistory = "history"
)

// 操作結果。メトリクスのラベルに使う。
const (
	resultOK       = "ok"
	resultNoop     = "noop"
	resultRejected = "rejected"
	resultError    = "error"
)

// HistoryLimits は履歴取得件数の既定値と上限。
type HistoryLimits struct {
	Default int
	Max     int
}

// DefaultHistoryLimits は既定10件、上限100件を返す。
func DefaultHistoryLimits() HistoryLimits {
	return HistoryLimits{Default: 10, Max: 100}
}

// Resolve は要求件数を正規化する。0以下は既定値、上限超過は上限に丸める。
func (l HistoryLimits) Resolve(requested int) int {
	if requested <= 0 {
		return l.Default
	}
	if l.Max > 0 && requested > l.Max {
		return l.Max
	}
	return requested
}

// Service はタイマーのサービス層。
// 呼び出し元の主体（Principal）は常に引数で受け取る。
type Service struct {
	records   repository.TimeRecordRepository
	tasks     repository.TaskRepository
	clock     clock.Clock
	sanitizer security.LabelSanitizer
	metrics   metrics.MetricsCollector
	limits    HistoryLimits
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	records repository.TimeRecordRepository,
	tasks repository.TaskRepository,
	clk clock.Clock,
	sanitizer security.LabelSanitizer,
	collector metrics.MetricsCollector,
	limits HistoryLimits,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		records:   records,
		tasks:     tasks,
		clock:     clk,
		sanitizer: sanitizer,
		metrics:   collector,
		limits:    limits,
	}
}

// Open はクライアントに対する計測を開始し、作成した区間のIDを返す。
// クライアントが主体の倉庫に存在しない場合はCLIENT_NOT_FOUND、
// 既に計測中の場合はTIMER_ALREADY_RUNNINGを返す。
func (s *Service) Open(ctx context.Context, p model.Principal, clientID int64) (int64, error) {
	if clientID <= 0 {
		s.metrics.RecordTimerOperation(OpOpen, resultRejected)
		return 0, model.NewMissingFieldError("client_id")
	}

	id, err := s.records.Start(ctx, p.UserID, clientID, p.Warehouse, s.clock.Now())
	switch {
	case errors.Is(err, repository.ErrClientNotFound):
		s.metrics.RecordTimerOperation(OpOpen, resultRejected)
		return 0, model.NewClientNotFoundError(clientID)
	case errors.Is(err, repository.ErrTimerAlreadyRunning):
		s.metrics.RecordTimerOperation(OpOpen, resultRejected)
		return 0, model.NewTimerAlreadyRunningError()
	case err != nil:
		return 0, s.storageFailure(OpOpen, p, err)
	}

	s.metrics.RecordTimerOperation(OpOpen, resultOK)
	slog.Info("計測を開始しました",
		slog.Int64("user_id", p.UserID),
		slog.Int64("client_id", clientID),
		slog.Int64("record_id", id),
	)
	return id, nil
}

// Close は主体の計測中区間を確定し、確定後のレコードを返す。
// 区間が存在しない・確定済み・他人のものの場合はエラーではなく(nil, nil)を返す。
func (s *Service) Close(ctx context.Context, p model.Principal, recordID int64, task model.TaskRef) (*model.TimeRecord, error) {
	if recordID <= 0 {
		s.metrics.RecordTimerOperation(OpClose, resultRejected)
		return nil, model.NewMissingFieldError("record_id")
	}

	task, err := s.validateTaskRef(ctx, p, task)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			s.metrics.RecordTimerOperation(OpClose, resultRejected)
			return nil, err
		}
		return nil, s.storageFailure(OpClose, p, err)
	}

	rec, err := s.records.Stop(ctx, repository.StopParams{
		RecordID: recordID,
		OwnerID:  p.UserID,
		EndedAt:  s.clock.Now(),
		Task:     task,
	})
	if err != nil {
		return nil, s.storageFailure(OpClose, p, err)
	}
	if rec == nil {
		s.metrics.RecordTimerOperation(OpClose, resultNoop)
		return nil, nil
	}

	s.metrics.RecordTimerOperation(OpClose, resultOK)
	if rec.DurationSeconds != nil {
		s.metrics.RecordTimerDuration(*rec.DurationSeconds)
	}
	return rec, nil
}

// Cancel は主体の計測中区間を削除する。確定済みの区間は削除せずfalseを返す。
func (s *Service) Cancel(ctx context.Context, p model.Principal, recordID int64) (bool, error) {
	if recordID <= 0 {
		s.metrics.RecordTimerOperation(OpCancel, resultRejected)
		return false, model.NewMissingFieldError("record_id")
	}

	cancelled, err := s.records.Cancel(ctx, recordID, p.UserID)
	if err != nil {
		return false, s.storageFailure(OpCancel, p, err)
	}

	if cancelled {
		s.metrics.RecordTimerOperation(OpCancel, resultOK)
	} else {
		s.metrics.RecordTimerOperation(OpCancel, resultNoop)
	}
	return cancelled, nil
}

// ActiveFor は主体の計測中区間と照会時点の経過秒数を返す。計測中でなければnilを返す。
func (s *Service) ActiveFor(ctx context.Context, p model.Principal) (*model.ActiveRecord, error) {
	rec, err := s.records.FindActiveByUser(ctx, p.UserID)
	if err != nil {
		return nil, s.storageFailure(OpActive, p, err)
	}
	s.metrics.RecordTimerOperation(OpActive, resultOK)
	if rec == nil {
		return nil, nil
	}

	return &model.ActiveRecord{
		TimeRecord:     *rec,
		ElapsedSeconds: ElapsedSeconds(rec.StartTime, s.clock.Now()),
	}, nil
}

// History は主体の倉庫内の区間を新しい順に返す。limitはHistoryLimitsで正規化する。
func (s *Service) History(ctx context.Context, p model.Principal, limit int) ([]model.TimeRecord, error) {
	records, err := s.records.ListByUser(ctx, p.UserID, p.Warehouse, s.limits.Resolve(limit))
	if err != nil {
		return nil, s.storageFailure(OpHistory, p, err)
	}
	s.metrics.RecordTimerOperation(OpHistory, resultOK)
	return records, nil
}

// validateTaskRef は作業参照を検証し、保存する形に正規化して返す。
func (s *Service) validateTaskRef(ctx context.Context, p model.Principal, ref model.TaskRef) (model.TaskRef, error) {
	switch ref.Kind {
	case model.TaskRefNone:
		return ref, nil

	case model.TaskRefPredefined:
		if ref.TaskID <= 0 {
			return ref, model.NewInvalidTaskRefError("task_idは正の整数で指定してください")
		}
		task, err := s.tasks.FindActive(ctx, ref.TaskID, p.Warehouse)
		if err != nil {
			return ref, err
		}
		if task == nil {
			return ref, model.NewTaskNotFoundError(ref.TaskID)
		}
		return ref, nil

	case model.TaskRefCustom:
		label := s.sanitizer.Clean(ref.Label)
		if label == "" {
			return ref, model.NewInvalidTaskRefError("custom_task_nameが空です")
		}
		if utf8.RuneCountInString(label) > MaxLabelLength {
			return ref, model.NewInvalidTaskRefError("custom_task_nameは255文字以内で指定してください")
		}
		return model.CustomTask(label), nil

	default:
		return ref, model.NewInvalidTaskRefError("不明な作業参照です")
	}
}

// storageFailure はストアの生のエラーを記録し、外部に返すエラーに置き換える。
func (s *Service) storageFailure(op string, p model.Principal, err error) error {
	s.metrics.RecordTimerOperation(op, resultError)
	slog.Error("タイマー操作でストアエラーが発生しました",
		slog.String("operation", op),
		slog.Int64("user_id", p.UserID),
		slog.String("error", err.Error()),
	)
	return model.NewStorageUnavailableError()
}
