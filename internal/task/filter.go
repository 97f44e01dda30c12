package task

import "strings"

// Filter narrows an already-fetched task list. Empty fields match everything.
type Filter struct {
	Staff     string `json:"staff"`
	Status    Status `json:"status"`
	Frequency string `json:"frequency"`
	Search    string `json:"search"`
}

func (f Filter) IsEmpty() bool {
	return IsAllStaff(f.Staff) && f.Status == "" && f.Frequency == "" && strings.TrimSpace(f.Search) == ""
}

func (f Filter) Match(t *Task) bool {
	if !IsAllStaff(f.Staff) && t.Name != f.Staff {
		return false
	}

	if f.Status != "" {
		completed := t.IsCompleted()
		switch f.Status {
		case StatusCompleted:
			if !completed {
				return false
			}
		case StatusPending:
			if completed {
				return false
			}
		default:
			if t.Status != f.Status {
				return false
			}
		}
	}

	if f.Frequency != "" && !strings.EqualFold(t.Frequency, f.Frequency) {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}

	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Email), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// Apply returns the tasks matching f, preserving order.
func (f Filter) Apply(tasks []Task) []Task {
	if f.IsEmpty() {
		return tasks
	}

	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		if f.Match(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}

	return out
}
