// Package task defines the checklist and delegation task domain shared by the
// repository, aggregation and HTTP layers.
package task

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type (
	Category string
	Status   string
	Task     struct {
		ID          int64      `json:"id"`
		Category    Category   `json:"category"`
		Name        string     `json:"name"`
		Email       string     `json:"email,omitempty"`
		Description string     `json:"description"`
		Frequency   string     `json:"frequency"`
		Status      Status     `json:"status"`
		PlannedDate time.Time  `json:"planned_date"`
		SubmittedAt *time.Time `json:"submitted_at,omitempty"`
		Remarks     string     `json:"remarks,omitempty"`
	}
	// Metric is the per-staff summary of one category, as produced by the
	// data source.
	Metric struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		TotalTasks     int    `json:"total_tasks"`
		CompletedTasks int    `json:"completed_tasks"`
		PendingTasks   int    `json:"pending_tasks"`
		Progress       int    `json:"progress"`
	}
)

const (
	CategoryChecklist  Category = "checklist"
	CategoryDelegation Category = "delegation"
)

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// AllStaff is the staff filter value that selects every staff member.
const AllStaff = "all"

var ErrUnknownCategory = errors.New("unknown task category")

func Categories() []Category {
	return []Category{CategoryChecklist, CategoryDelegation}
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryChecklist, CategoryDelegation:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Table returns the backing table of the category. Unknown categories map to
// an empty string so callers never build SQL from raw input.
func (c Category) Table() string {
	switch c {
	case CategoryChecklist:
		return "checklist"
	case CategoryDelegation:
		return "delegation"
	default:
		return ""
	}
}

func (c Category) String() string {
	return string(c)
}

// Progress returns completed/total as a whole percentage, rounding half away
// from zero. A zero total yields 0.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func NewMetric(name, email string, total, completed int) Metric {
	return Metric{
		Name:           name,
		Email:          email,
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   total - completed,
		Progress:       Progress(completed, total),
	}
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted || t.SubmittedAt != nil
}

// IsAllStaff reports whether the staff filter selects everyone.
func IsAllStaff(filter string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || strings.EqualFold(f, AllStaff)
}
