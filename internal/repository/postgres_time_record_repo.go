package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/launchpad/internal/database"
	"github.com/hitoshi/launchpad/internal/model"
)

// PostgresTimeRecordRepo はPostgreSQLを使用した計測区間リポジトリ。
type PostgresTimeRecordRepo struct {
	db    *sql.DB
	retry database.RetryPolicy
}

// NewPostgresTimeRecordRepo はPostgresTimeRecordRepoを生成する。
func NewPostgresTimeRecordRepo(db *sql.DB, retry database.RetryPolicy) *PostgresTimeRecordRepo {
	return &PostgresTimeRecordRepo{db: db, retry: retry}
}

// Start はクライアントの検証と挿入を1文で行う。
// 未終了区間の重複は部分ユニークインデックスが拒否する。
func (r *PostgresTimeRecordRepo) Start(ctx context.Context, ownerID, clientID int64, warehouse string, startedAt time.Time) (int64, error) {
	return database.Retry(ctx, r.retry, "time_records.start", func(ctx context.Context) (int64, error) {
		var id int64
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO time_records (user_id, client_id, start_time)
			 SELECT $1::bigint, c.id, $4::timestamptz
			 FROM clients c
			 WHERE c.id = $2 AND c.warehouse = $3 AND c.is_active = true
			 RETURNING id`,
			ownerID, clientID, warehouse, startedAt.UTC(),
		).Scan(&id)

		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrClientNotFound
		}
		if database.IsUniqueViolation(err) {
			return 0, ErrTimerAlreadyRunning
		}
		if err != nil {
			return 0, fmt.Errorf("failed to insert time record: %w", err)
		}
		return id, nil
	})
}

// Stop は未終了区間を条件付きUPDATEで確定する。
// 終了時刻が開始時刻より前になる場合は開始時刻に揃え、所要時間は0秒とする。
func (r *PostgresTimeRecordRepo) Stop(ctx context.Context, params StopParams) (*model.TimeRecord, error) {
	return database.Retry(ctx, r.retry, "time_records.stop", func(ctx context.Context) (*model.TimeRecord, error) {
		rec := &model.TimeRecord{}
		err := r.db.QueryRowContext(ctx,
			`UPDATE time_records
			 SET end_time = GREATEST(start_time, $3::timestamptz),
			     duration_seconds = FLOOR(EXTRACT(EPOCH FROM (GREATEST(start_time, $3::timestamptz) - start_time)))::bigint,
			     task_id = $4,
			     custom_task_name = $5
			 WHERE id = $1 AND user_id = $2 AND end_time IS NULL
			 RETURNING id, user_id, client_id, start_time, end_time, duration_seconds, task_id, custom_task_name`,
			params.RecordID, params.OwnerID, params.EndedAt.UTC(), params.Task.TaskIDPtr(), params.Task.LabelPtr(),
		).Scan(&rec.ID, &rec.UserID, &rec.ClientID, &rec.StartTime, &rec.EndTime,
			&rec.DurationSeconds, &rec.TaskID, &rec.CustomTaskName)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stop time record: %w", err)
		}
		normalizeTimes(rec)
		return rec, nil
	})
}

// Cancel は所有者の未終了区間を削除する。確定済みの区間は削除しない。
func (r *PostgresTimeRecordRepo) Cancel(ctx context.Context, recordID, ownerID int64) (bool, error) {
	return database.Retry(ctx, r.retry, "time_records.cancel", func(ctx context.Context) (bool, error) {
		result, err := r.db.ExecContext(ctx,
			`DELETE FROM time_records WHERE id = $1 AND user_id = $2 AND end_time IS NULL`,
			recordID, ownerID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to cancel time record: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get rows affected: %w", err)
		}
		return rowsAffected > 0, nil
	})
}

// FindActiveByUser はユーザーの未終了区間をクライアント名付きで返す。なければnilを返す。
func (r *PostgresTimeRecordRepo) FindActiveByUser(ctx context.Context, ownerID int64) (*model.TimeRecord, error) {
	return database.Retry(ctx, r.retry, "time_records.find_active", func(ctx context.Context) (*model.TimeRecord, error) {
		rec := &model.TimeRecord{}
		err := r.db.QueryRowContext(ctx,
			`SELECT tr.id, tr.user_id, tr.client_id, c.name, tr.start_time
			 FROM time_records tr
			 JOIN clients c ON c.id = tr.client_id
			 WHERE tr.user_id = $1 AND tr.end_time IS NULL
			 ORDER BY tr.start_time DESC
			 LIMIT 1`,
			ownerID,
		).Scan(&rec.ID, &rec.UserID, &rec.ClientID, &rec.ClientName, &rec.StartTime)

		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find active time record: %w", err)
		}
		normalizeTimes(rec)
		return rec, nil
	})
}

// ListByUser は倉庫内でのユーザーの区間を開始時刻の降順で返す。
// ユーザーとクライアントの双方が倉庫に属する行だけを対象にする。
func (r *PostgresTimeRecordRepo) ListByUser(ctx context.Context, ownerID int64, warehouse string, limit int) ([]model.TimeRecord, error) {
	return database.Retry(ctx, r.retry, "time_records.list_by_user", func(ctx context.Context) ([]model.TimeRecord, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT tr.id, tr.user_id, tr.client_id, c.name, tr.start_time, tr.end_time,
			        tr.duration_seconds, tr.task_id, t.task_name, tr.custom_task_name
			 FROM time_records tr
			 JOIN users u ON u.id = tr.user_id
			 JOIN clients c ON c.id = tr.client_id
			 LEFT JOIN tasks t ON t.id = tr.task_id
			 WHERE tr.user_id = $1 AND u.warehouse = $2 AND c.warehouse = $2
			 ORDER BY tr.start_time DESC, tr.id DESC
			 LIMIT $3`,
			ownerID, warehouse, limit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list time records: %w", err)
		}
		defer rows.Close()

		records := []model.TimeRecord{}
		for rows.Next() {
			var rec model.TimeRecord
			if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ClientID, &rec.ClientName, &rec.StartTime,
				&rec.EndTime, &rec.DurationSeconds, &rec.TaskID, &rec.TaskName, &rec.CustomTaskName); err != nil {
				return nil, fmt.Errorf("failed to scan time record: %w", err)
			}
			normalizeTimes(&rec)
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate time records: %w", err)
		}
		return records, nil
	})
}

// ListForReport はレポート条件に一致する区間を利用者情報付きで返す。
func (r *PostgresTimeRecordRepo) ListForReport(ctx context.Context, filter model.ReportFilter) ([]model.ReportRecord, error) {
	query, args := buildReportQuery(filter)

	return database.Retry(ctx, r.retry, "time_records.list_for_report", func(ctx context.Context) ([]model.ReportRecord, error) {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to list report records: %w", err)
		}
		defer rows.Close()

		records := []model.ReportRecord{}
		for rows.Next() {
			var rec model.ReportRecord
			if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.FullName, &rec.Warehouse,
				&rec.ClientID, &rec.ClientName, &rec.StartTime, &rec.EndTime, &rec.DurationSeconds,
				&rec.TaskID, &rec.TaskName, &rec.CustomTaskName); err != nil {
				return nil, fmt.Errorf("failed to scan report record: %w", err)
			}
			normalizeTimes(&rec.TimeRecord)
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate report records: %w", err)
		}
		return records, nil
	})
}

// buildReportQuery はレポート条件からSQLとパラメータを組み立てる。
// 終了日は当日を含むため、翌日0時未満を条件にする。
func buildReportQuery(filter model.ReportFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	addCond := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if !filter.AllWarehouses {
		addCond("u.warehouse = $%d", filter.Warehouse)
	}
	if filter.StartDate != nil {
		addCond("tr.start_time >= $%d", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		addCond("tr.start_time < $%d", filter.EndDate.UTC().AddDate(0, 0, 1))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT tr.id, tr.user_id, u.username, u.full_name, u.warehouse,
	        tr.client_id, c.name, tr.start_time, tr.end_time, tr.duration_seconds,
	        tr.task_id, t.task_name, tr.custom_task_name
	 FROM time_records tr
	 JOIN users u ON u.id = tr.user_id
	 JOIN clients c ON c.id = tr.client_id
	 LEFT JOIN tasks t ON t.id = tr.task_id`)
	if len(conds) > 0 {
		sb.WriteString("\n WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString("\n ORDER BY tr.start_time DESC, tr.id DESC")

	return sb.String(), args
}

// normalizeTimes はドライバが返すタイムゾーン付き時刻をUTCに揃える。
func normalizeTimes(rec *model.TimeRecord) {
	rec.StartTime = rec.StartTime.UTC()
	if rec.EndTime != nil {
		end := rec.EndTime.UTC()
		rec.EndTime = &end
	}
}

// compile-time interface check
var _ TimeRecordRepository = (*PostgresTimeRecordRepo)(nil)
