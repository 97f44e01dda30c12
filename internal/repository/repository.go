package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/calendar"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	FetchStaffTasks(ctx context.Context, category task.Category, staffFilter string, page, pageSize int) ([]task.Metric, error)
	GetStaffTasksCount(ctx context.Context, category task.Category, staffFilter string) (int, error)
	GetTotalUsersCount(ctx context.Context) (int, error)
	ListTasks(ctx context.Context, category task.Category, staffFilter string, page, pageSize int) ([]task.Task, error)
	CompleteTask(ctx context.Context, category task.Category, id int64, remarks string) error
	ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error)
	AddHoliday(ctx context.Context, h *calendar.Holiday) error
	DeleteHoliday(ctx context.Context, id int64) error
	Close() error
}

func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

func staffParam(filter string) string {
	if task.IsAllStaff(filter) {
		return task.AllStaff
	}
	return filter
}
