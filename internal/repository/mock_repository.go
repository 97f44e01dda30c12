package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/calendar"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

// MockRepository is an in-memory Repository for tests. Metrics are derived
// from Tasks the same way the SQL queries derive them.
type MockRepository struct {
	mu                   sync.Mutex
	Tasks                map[task.Category][]task.Task
	Users                int
	Holidays             []calendar.Holiday
	FetchStaffTasksCalls []FetchStaffTasksCall
	CompleteTaskCalls    []CompleteTaskCall
	FetchStaffTasksError error
	StaffCountError      error
	UsersCountError      error
	ListTasksError       error
	CompleteTaskError    error
	HolidaysError        error
	nextHolidayID        int64
	now                  func() time.Time
}

type FetchStaffTasksCall struct {
	Category    task.Category
	StaffFilter string
	Page        int
	PageSize    int
}

type CompleteTaskCall struct {
	Category task.Category
	ID       int64
	Remarks  string
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		Tasks:    make(map[task.Category][]task.Task),
		Holidays: make([]calendar.Holiday, 0),
		now:      time.Now,
	}
}

func (m *MockRepository) AddTask(t task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tasks[t.Category] = append(m.Tasks[t.Category], t)
}

func (m *MockRepository) dueTasks(category task.Category, staffFilter string) []task.Task {
	now := m.now()
	all := task.IsAllStaff(staffFilter)

	var out []task.Task
	for _, t := range m.Tasks[category] {
		if !all && t.Name != staffFilter {
			continue
		}
		if t.PlannedDate.After(now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func page[T any](items []T, page, pageSize int) []T {
	start := offset(page, pageSize)
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

func (m *MockRepository) FetchStaffTasks(ctx context.Context, category task.Category, staffFilter string, pg, pageSize int) ([]task.Metric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchStaffTasksCalls = append(m.FetchStaffTasksCalls, FetchStaffTasksCall{
		Category:    category,
		StaffFilter: staffFilter,
		Page:        pg,
		PageSize:    pageSize,
	})

	if m.FetchStaffTasksError != nil {
		return nil, m.FetchStaffTasksError
	}
	if _, err := table(category); err != nil {
		return nil, err
	}

	type counts struct {
		email            string
		total, completed int
	}
	byName := make(map[string]*counts)
	var names []string
	for _, t := range m.dueTasks(category, staffFilter) {
		c, ok := byName[t.Name]
		if !ok {
			c = &counts{}
			byName[t.Name] = c
			names = append(names, t.Name)
		}
		if t.Email > c.email {
			c.email = t.Email
		}
		c.total++
		if t.SubmittedAt != nil {
			c.completed++
		}
	}
	sort.Strings(names)

	metrics := make([]task.Metric, 0, len(names))
	for _, name := range page(names, pg, pageSize) {
		c := byName[name]
		metrics = append(metrics, task.NewMetric(name, c.email, c.total, c.completed))
	}

	return metrics, nil
}

func (m *MockRepository) GetStaffTasksCount(ctx context.Context, category task.Category, staffFilter string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StaffCountError != nil {
		return 0, m.StaffCountError
	}

	seen := make(map[string]struct{})
	for _, t := range m.dueTasks(category, staffFilter) {
		seen[t.Name] = struct{}{}
	}

	return len(seen), nil
}

func (m *MockRepository) GetTotalUsersCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UsersCountError != nil {
		return 0, m.UsersCountError
	}

	return m.Users, nil
}

func (m *MockRepository) ListTasks(ctx context.Context, category task.Category, staffFilter string, pg, pageSize int) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListTasksError != nil {
		return nil, m.ListTasksError
	}
	if _, err := table(category); err != nil {
		return nil, err
	}

	all := task.IsAllStaff(staffFilter)
	var tasks []task.Task
	for _, t := range m.Tasks[category] {
		if all || t.Name == staffFilter {
			tasks = append(tasks, t)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].PlannedDate.Equal(tasks[j].PlannedDate) {
			return tasks[i].PlannedDate.After(tasks[j].PlannedDate)
		}
		return tasks[i].ID > tasks[j].ID
	})

	return append([]task.Task{}, page(tasks, pg, pageSize)...), nil
}

func (m *MockRepository) CompleteTask(ctx context.Context, category task.Category, id int64, remarks string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteTaskCalls = append(m.CompleteTaskCalls, CompleteTaskCall{Category: category, ID: id, Remarks: remarks})

	if m.CompleteTaskError != nil {
		return m.CompleteTaskError
	}

	tasks := m.Tasks[category]
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks[i].Status = task.StatusCompleted
		if tasks[i].SubmittedAt == nil {
			now := m.now()
			tasks[i].SubmittedAt = &now
		}
		tasks[i].Remarks = remarks
		return nil
	}

	return fmt.Errorf("%s task %d: %w", category, id, ErrNotFound)
}

func (m *MockRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.HolidaysError != nil {
		return nil, m.HolidaysError
	}

	holidays := []calendar.Holiday{}
	for _, h := range m.Holidays {
		if h.Date.Before(from) || h.Date.After(to) {
			continue
		}
		holidays = append(holidays, h)
	}

	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}

func (m *MockRepository) AddHoliday(ctx context.Context, h *calendar.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.HolidaysError != nil {
		return m.HolidaysError
	}

	m.nextHolidayID++
	h.ID = m.nextHolidayID
	m.Holidays = append(m.Holidays, *h)
	return nil
}

func (m *MockRepository) DeleteHoliday(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.HolidaysError != nil {
		return m.HolidaysError
	}

	for i, h := range m.Holidays {
		if h.ID == id {
			m.Holidays = append(m.Holidays[:i], m.Holidays[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("holiday %d: %w", id, ErrNotFound)
}

func (m *MockRepository) GetFetchStaffTasksCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.FetchStaffTasksCalls)
}

func (m *MockRepository) Close() error {
	return nil
}
