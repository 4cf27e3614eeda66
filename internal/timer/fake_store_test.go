package timer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// fakeStore はtime_records/clients/tasksをメモリ上で再現するテスト用ストア。
// 条件付き更新・削除と未終了区間の一意性をPostgreSQL実装と同じ意味で扱う。
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]model.Client
	tasks   map[int64]model.Task
	users   map[int64]string
	records map[int64]*model.TimeRecord

	// err が設定されている場合、全メソッドがこのエラーを返す。
	err   error
	calls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:  100,
		clients: make(map[int64]model.Client),
		tasks:   make(map[int64]model.Task),
		users:   make(map[int64]string),
		records: make(map[int64]*model.TimeRecord),
	}
}

func (f *fakeStore) addUser(id int64, warehouse string) {
	f.users[id] = warehouse
}

func (f *fakeStore) addClient(id int64, name, warehouse string) {
	f.clients[id] = model.Client{ID: id, Name: name, Warehouse: warehouse}
}

func (f *fakeStore) addTask(id int64, name, warehouse string) {
	f.tasks[id] = model.Task{ID: id, Name: name, Warehouse: warehouse, IsPredefined: true}
}

// insertRecord はバリデーションを通さずに行を直接作る。
func (f *fakeStore) insertRecord(rec model.TimeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := rec
	f.records[rec.ID] = &r
}

func (f *fakeStore) get(id int64) (model.TimeRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return model.TimeRecord{}, false
	}
	return *rec, true
}

func (f *fakeStore) openCount(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.records {
		if rec.UserID == userID && rec.EndTime == nil {
			n++
		}
	}
	return n
}

func (f *fakeStore) enter() error {
	f.calls++
	return f.err
}

func (f *fakeStore) Start(ctx context.Context, ownerID, clientID int64, warehouse string, startedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return 0, err
	}

	c, ok := f.clients[clientID]
	if !ok || c.Warehouse != warehouse {
		return 0, repository.ErrClientNotFound
	}
	for _, rec := range f.records {
		if rec.UserID == ownerID && rec.EndTime == nil {
			return 0, repository.ErrTimerAlreadyRunning
		}
	}

	f.nextID++
	f.records[f.nextID] = &model.TimeRecord{
		ID:        f.nextID,
		UserID:    ownerID,
		ClientID:  clientID,
		StartTime: startedAt,
	}
	return f.nextID, nil
}

func (f *fakeStore) Stop(ctx context.Context, params repository.StopParams) (*model.TimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}

	rec, ok := f.records[params.RecordID]
	if !ok || rec.UserID != params.OwnerID || rec.EndTime != nil {
		return nil, nil
	}

	end := params.EndedAt
	if end.Before(rec.StartTime) {
		end = rec.StartTime
	}
	duration := int64(end.Sub(rec.StartTime) / time.Second)
	rec.EndTime = &end
	rec.DurationSeconds = &duration
	rec.TaskID = params.Task.TaskIDPtr()
	rec.CustomTaskName = params.Task.LabelPtr()

	out := *rec
	return &out, nil
}

func (f *fakeStore) Cancel(ctx context.Context, recordID, ownerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return false, err
	}

	rec, ok := f.records[recordID]
	if !ok || rec.UserID != ownerID || rec.EndTime != nil {
		return false, nil
	}
	delete(f.records, recordID)
	return true, nil
}

func (f *fakeStore) FindActiveByUser(ctx context.Context, ownerID int64) (*model.TimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}

	for _, rec := range f.records {
		if rec.UserID == ownerID && rec.EndTime == nil {
			out := *rec
			out.ClientName = f.clients[rec.ClientID].Name
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, ownerID int64, warehouse string, limit int) ([]model.TimeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}

	out := []model.TimeRecord{}
	for _, rec := range f.records {
		if rec.UserID != ownerID || f.users[ownerID] != warehouse {
			continue
		}
		c := f.clients[rec.ClientID]
		if c.Warehouse != warehouse {
			continue
		}
		r := *rec
		r.ClientName = c.Name
		if r.TaskID != nil {
			name := f.tasks[*r.TaskID].Name
			r.TaskName = &name
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListForReport(ctx context.Context, filter model.ReportFilter) ([]model.ReportRecord, error) {
	return nil, nil
}

func (f *fakeStore) ListByWarehouse(ctx context.Context, warehouse string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range f.tasks {
		if t.Warehouse == warehouse {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) FindActive(ctx context.Context, id int64, warehouse string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(); err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok || t.Warehouse != warehouse {
		return nil, nil
	}
	return &t, nil
}

var (
	_ repository.TimeRecordRepository = (*fakeStore)(nil)
	_ repository.TaskRepository       = (*fakeStore)(nil)
)

// recordingMetrics はタイマー操作の記録を保持するテスト用コレクタ。
type recordingMetrics struct {
	mu        sync.Mutex
	ops       []string
	durations []int64
}

func (m *recordingMetrics) RecordTimerOperation(operation, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, operation+"/"+result)
}

func (m *recordingMetrics) RecordTimerDuration(seconds int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, seconds)
}

func (m *recordingMetrics) RecordLogin(string)                 {}
func (m *recordingMetrics) RecordHTTPStatus(int)               {}
func (m *recordingMetrics) RecordRequestLatency(time.Duration) {}
func (m *recordingMetrics) RecordStoreRetry(string)            {}

func (m *recordingMetrics) has(entry string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.ops {
		if op == entry {
			return true
		}
	}
	return false
}
