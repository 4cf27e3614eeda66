package model

import "time"

// TaskRefKind は停止時に記録する作業内容の種別。
type TaskRefKind int

const (
	// TaskRefNone は作業内容なし。
	TaskRefNone TaskRefKind = iota
	// TaskRefPredefined は定義済み作業（tasksテーブル）への参照。
	TaskRefPredefined
	// TaskRefCustom は自由入力の作業名。
	TaskRefCustom
)

// TaskRef は定義済み作業ID・自由入力ラベル・なしのいずれか一つを表す。
// ゼロ値はTaskRefNone。
type TaskRef struct {
	Kind   TaskRefKind
	TaskID int64
	Label  string
}

// NoTask は作業内容なしのTaskRefを返す。
func NoTask() TaskRef {
	return TaskRef{Kind: TaskRefNone}
}

// PredefinedTask は定義済み作業を参照するTaskRefを返す。
func PredefinedTask(taskID int64) TaskRef {
	return TaskRef{Kind: TaskRefPredefined, TaskID: taskID}
}

// CustomTask は自由入力の作業名を持つTaskRefを返す。
func CustomTask(label string) TaskRef {
	return TaskRef{Kind: TaskRefCustom, Label: label}
}

// TaskIDPtr はDB書き込み用にtask_idを返す。定義済み作業以外はnil。
func (r TaskRef) TaskIDPtr() *int64 {
	if r.Kind != TaskRefPredefined {
		return nil
	}
	id := r.TaskID
	return &id
}

// LabelPtr はDB書き込み用にcustom_task_nameを返す。自由入力以外はnil。
func (r TaskRef) LabelPtr() *string {
	if r.Kind != TaskRefCustom {
		return nil
	}
	label := r.Label
	return &label
}

// TimeRecord は1件の計測区間（time_recordsテーブルの1行）を表す。
// EndTimeがnilの間は計測中（open）、設定後は確定済み（closed）で以後変更されない。
type TimeRecord struct {
	ID              int64
	UserID          int64
	ClientID        int64
	ClientName      string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	TaskID          *int64
	TaskName        *string
	CustomTaskName  *string
}

// IsOpen は計測中かを返す。
func (r *TimeRecord) IsOpen() bool {
	return r.EndTime == nil
}

// ActiveRecord は計測中の区間と、照会時点での経過秒数を表す。
// 経過秒数は保存せず、照会のたびに計算する。
type ActiveRecord struct {
	TimeRecord
	ElapsedSeconds int64
}

// ReportRecord はレポート用に利用者情報を結合した計測区間。
type ReportRecord struct {
	TimeRecord
	Username  string
	FullName  string
	Warehouse string
}

// ReportFilter はレポート取得条件。
// AllWarehousesがtrueの場合はWarehouseを無視して全倉庫を対象にする。
type ReportFilter struct {
	Warehouse     string
	AllWarehouses bool
	StartDate     *time.Time
	EndDate       *time.Time
}
