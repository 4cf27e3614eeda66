package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/repository"
)

// --- 統合テスト用のステートフルなインメモリストア ---

// memDB はusers/clients/tasks/time_recordsを保持する共有状態。
// 条件付き更新の意味はPostgreSQL実装に合わせる。
type memDB struct {
	mu      sync.Mutex
	nextID  int64
	users   map[string]*model.User
	clients map[int64]model.Client
	tasks   map[int64]model.Task
	records map[int64]*model.TimeRecord
}

func newMemDB() *memDB {
	return &memDB{
		nextID:  1000,
		users:   make(map[string]*model.User),
		clients: make(map[int64]model.Client),
		tasks:   make(map[int64]model.Task),
		records: make(map[int64]*model.TimeRecord),
	}
}

func (db *memDB) userByID(id int64) *model.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// decorate はクライアント名と作業名を結合したコピーを返す。
func (db *memDB) decorate(rec *model.TimeRecord) model.TimeRecord {
	out := *rec
	out.ClientName = db.clients[rec.ClientID].Name
	if rec.TaskID != nil {
		name := db.tasks[*rec.TaskID].Name
		out.TaskName = &name
	}
	return out
}

type memUsers struct{ db *memDB }

func (m memUsers) FindActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[username]
	if !ok || !u.IsActive {
		return nil, nil
	}
	out := *u
	return &out, nil
}

type memClients struct{ db *memDB }

func (m memClients) ListByWarehouse(ctx context.Context, warehouse string) ([]model.Client, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Client
	for _, c := range m.db.clients {
		if c.Warehouse == warehouse {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memTasks struct{ db *memDB }

func (m memTasks) ListByWarehouse(ctx context.Context, warehouse string) ([]model.Task, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Task
	for _, t := range m.db.tasks {
		if t.Warehouse == warehouse {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memTasks) FindActive(ctx context.Context, id int64, warehouse string) (*model.Task, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tasks[id]
	if !ok || t.Warehouse != warehouse {
		return nil, nil
	}
	return &t, nil
}

type memRecords struct{ db *memDB }

func (m memRecords) Start(ctx context.Context, ownerID, clientID int64, warehouse string, startedAt time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.clients[clientID]
	if !ok || c.Warehouse != warehouse {
		return 0, repository.ErrClientNotFound
	}
	for _, rec := range m.db.records {
		if rec.UserID == ownerID && rec.EndTime == nil {
			return 0, repository.ErrTimerAlreadyRunning
		}
	}
	m.db.nextID++
	m.db.records[m.db.nextID] = &model.TimeRecord{ID: m.db.nextID, UserID: ownerID, ClientID: clientID, StartTime: startedAt}
	return m.db.nextID, nil
}

func (m memRecords) Stop(ctx context.Context, params repository.StopParams) (*model.TimeRecord, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	rec, ok := m.db.records[params.RecordID]
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
	out := m.db.decorate(rec)
	return &out, nil
}

func (m memRecords) Cancel(ctx context.Context, recordID, ownerID int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	rec, ok := m.db.records[recordID]
	if !ok || rec.UserID != ownerID || rec.EndTime != nil {
		return false, nil
	}
	delete(m.db.records, recordID)
	return true, nil
}

func (m memRecords) FindActiveByUser(ctx context.Context, ownerID int64) (*model.TimeRecord, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, rec := range m.db.records {
		if rec.UserID == ownerID && rec.EndTime == nil {
			out := m.db.decorate(rec)
			return &out, nil
		}
	}
	return nil, nil
}

func (m memRecords) ListByUser(ctx context.Context, ownerID int64, warehouse string, limit int) ([]model.TimeRecord, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.TimeRecord{}
	for _, rec := range m.db.records {
		if rec.UserID == ownerID && m.db.clients[rec.ClientID].Warehouse == warehouse {
			out = append(out, m.db.decorate(rec))
		}
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

func (m memRecords) ListForReport(ctx context.Context, filter model.ReportFilter) ([]model.ReportRecord, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.ReportRecord{}
	for _, rec := range m.db.records {
		u := m.db.userByID(rec.UserID)
		if u == nil || (!filter.AllWarehouses && u.Warehouse != filter.Warehouse) {
			continue
		}
		out = append(out, model.ReportRecord{
			TimeRecord: m.db.decorate(rec),
			Username:   u.Username,
			FullName:   u.FullName,
			Warehouse:  u.Warehouse,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var (
	_ repository.UserRepository       = memUsers{}
	_ repository.ClientRepository     = memClients{}
	_ repository.TaskRepository       = memTasks{}
	_ repository.TimeRecordRepository = memRecords{}
)
