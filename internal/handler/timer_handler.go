package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/timer"
)

// TimerServiceInterface はタイマーハンドラーが必要とするサービスインターフェース。
type TimerServiceInterface interface {
	Open(ctx context.Context, p model.Principal, clientID int64) (int64, error)
	Close(ctx context.Context, p model.Principal, recordID int64, task model.TaskRef) (*model.TimeRecord, error)
	Cancel(ctx context.Context, p model.Principal, recordID int64) (bool, error)
	ActiveFor(ctx context.Context, p model.Principal) (*model.ActiveRecord, error)
	History(ctx context.Context, p model.Principal, limit int) ([]model.TimeRecord, error)
}

// TimerHandler は計測の開始・停止・取消・照会のHTTPハンドラー。
type TimerHandler struct {
	service TimerServiceInterface
}

// NewTimerHandler はTimerHandlerを生成する。
func NewTimerHandler(service TimerServiceInterface) *TimerHandler {
	return &TimerHandler{service: service}
}

type startTimerRequest struct {
	ClientID *int64 `json:"client_id"`
}

type stopTimerRequest struct {
	RecordID       *int64  `json:"record_id"`
	TaskID         *int64  `json:"task_id"`
	CustomTaskName *string `json:"custom_task_name"`
}

type cancelTimerRequest struct {
	RecordID *int64 `json:"record_id"`
}

type startTimerResponse struct {
	Success  bool   `json:"success"`
	RecordID int64  `json:"record_id"`
	Message  string `json:"message"`
}

type stopTimerResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Record  *timeRecordResponse `json:"record,omitempty"`
}

type cancelTimerResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

type activeRecordResponse struct {
	RecordID       int64     `json:"record_id"`
	ClientName     string    `json:"client_name"`
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

type activeTimerResponse struct {
	Active bool                  `json:"active"`
	Record *activeRecordResponse `json:"record"`
}

// timeRecordResponse は計測区間のAPIレスポンス。
type timeRecordResponse struct {
	RecordID        int64      `json:"record_id"`
	ClientName      string     `json:"client_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
	TaskID          *int64     `json:"task_id"`
	TaskName        *string    `json:"task_name"`
	CustomTaskName  *string    `json:"custom_task_name"`
}

func newTimeRecordResponse(rec model.TimeRecord) timeRecordResponse {
	out := timeRecordResponse{
		RecordID:        rec.ID,
		ClientName:      rec.ClientName,
		StartTime:       rec.StartTime.UTC(),
		DurationSeconds: rec.DurationSeconds,
		TaskID:          rec.TaskID,
		TaskName:        rec.TaskName,
		CustomTaskName:  rec.CustomTaskName,
	}
	if rec.EndTime != nil {
		end := rec.EndTime.UTC()
		out.EndTime = &end
	}
	return out
}

// Start は計測を開始する。
// POST /api/timer/start
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req startTimerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	clientID := positiveID(req.ClientID)
	if clientID == 0 {
		handleServiceError(w, model.NewMissingFieldError("client_id"))
		return
	}

	id, err := h.service.Open(r.Context(), p, clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startTimerResponse{
		Success:  true,
		RecordID: id,
		Message:  "計測を開始しました",
	})
}

// Stop は計測中の区間を停止する。
// 停止できる区間がない場合も200で{"success": false}を返す。
// POST /api/timer/stop
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req stopTimerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	recordID := positiveID(req.RecordID)
	if recordID == 0 {
		handleServiceError(w, model.NewMissingFieldError("record_id"))
		return
	}
	task, err := timer.NewTaskRef(req.TaskID, req.CustomTaskName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rec, err := h.service.Close(r.Context(), p, recordID, task)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, stopTimerResponse{
			Success: false,
			Message: "停止できる計測中のタイマーがありません",
		})
		return
	}

	out := newTimeRecordResponse(*rec)
	writeJSON(w, http.StatusOK, stopTimerResponse{
		Success: true,
		Message: "計測を停止しました",
		Record:  &out,
	})
}

// Cancel は計測中の区間を記録せずに破棄する。
// 破棄できる区間がない場合も200で{"cancelled": false}を返す。
// POST /api/timer/cancel
func (h *TimerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req cancelTimerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	recordID := positiveID(req.RecordID)
	if recordID == 0 {
		handleServiceError(w, model.NewMissingFieldError("record_id"))
		return
	}

	cancelled, err := h.service.Cancel(r.Context(), p, recordID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	msg := "計測を取り消しました"
	if !cancelled {
		msg = "取り消せる計測中のタイマーがありません"
	}
	writeJSON(w, http.StatusOK, cancelTimerResponse{Cancelled: cancelled, Message: msg})
}

// Active は計測中の区間と経過秒数を返す。
// GET /api/timer/active
func (h *TimerHandler) Active(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	active, err := h.service.ActiveFor(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if active == nil {
		writeJSON(w, http.StatusOK, activeTimerResponse{Active: false})
		return
	}

	writeJSON(w, http.StatusOK, activeTimerResponse{
		Active: true,
		Record: &activeRecordResponse{
			RecordID:       active.ID,
			ClientName:     active.ClientName,
			StartTime:      active.StartTime.UTC(),
			ElapsedSeconds: active.ElapsedSeconds,
		},
	})
}

// History は主体の計測履歴を新しい順に返す。
// limitが数値でない場合は既定件数を使う。
// GET /api/timer/history?limit=10
func (h *TimerHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.service.History(r.Context(), p, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]timeRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newTimeRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}
