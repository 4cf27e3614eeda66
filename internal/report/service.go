// Package report は計測区間のレポート取得を提供する。
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// AllWarehouses は全倉庫を対象にする指定値。管理者のみ使用できる。
const AllWarehouses = "*"

const dateLayout = "2006-01-02"

// Query はレポート取得のリクエスト条件。日付はYYYY-MM-DD形式で、両端を含む。
type Query struct {
	Warehouse string
	StartDate string
	EndDate   string
}

// Service はレポートのサービス層。
type Service struct {
	records repository.TimeRecordRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(records repository.TimeRecordRepository) *Service {
	return &Service{records: records}
}

// List は条件に一致する区間を利用者・クライアント・作業名付きで返す。
// 一般ユーザーは自分の倉庫のみ、管理者は任意の倉庫または全倉庫を指定できる。
func (s *Service) List(ctx context.Context, p model.Principal, q Query) ([]model.ReportRecord, error) {
	filter, err := buildFilter(p, q)
	if err != nil {
		return nil, err
	}

	records, err := s.records.ListForReport(ctx, filter)
	if err != nil {
		slog.Error("レポート取得でストアエラーが発生しました",
			slog.Int64("user_id", p.UserID),
			slog.String("warehouse", filter.Warehouse),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStorageUnavailableError()
	}
	return records, nil
}

func buildFilter(p model.Principal, q Query) (model.ReportFilter, error) {
	filter := model.ReportFilter{Warehouse: q.Warehouse}

	switch {
	case filter.Warehouse == "":
		filter.Warehouse = p.Warehouse
	case filter.Warehouse == AllWarehouses:
		if !p.IsAdmin() {
			return filter, model.NewForbiddenError()
		}
		filter.AllWarehouses = true
	case filter.Warehouse != p.Warehouse && !p.IsAdmin():
		return filter, model.NewForbiddenError()
	}

	start, err := parseDate(q.StartDate)
	if err != nil {
		return filter, err
	}
	end, err := parseDate(q.EndDate)
	if err != nil {
		return filter, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return filter, model.NewInvalidDateError(q.EndDate)
	}
	filter.StartDate = start
	filter.EndDate = end

	return filter, nil
}

// parseDate はYYYY-MM-DDをUTCの0時として解釈する。空文字列はnilを返す。
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, model.NewInvalidDateError(value)
	}
	return &d, nil
}
