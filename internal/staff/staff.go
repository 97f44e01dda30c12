// Package staff merges per-category task metrics into one record per staff
// member and filters the merged records in memory.
package staff

import (
	"strings"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

// Record is the merged checklist and delegation view of one staff member.
// Records are keyed by display name only; two staff members sharing a name
// collapse into one record.
type Record struct {
	Name  string `json:"name"`
	Email string `json:"email"`

	ChecklistTotal     int `json:"checklist_total"`
	ChecklistCompleted int `json:"checklist_completed"`
	ChecklistPending   int `json:"checklist_pending"`
	ChecklistProgress  int `json:"checklist_progress"`

	DelegationTotal     int `json:"delegation_total"`
	DelegationCompleted int `json:"delegation_completed"`
	DelegationPending   int `json:"delegation_pending"`
	DelegationProgress  int `json:"delegation_progress"`

	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	Progress       int `json:"progress"`
}

// Viewer is the dashboard user a report is built for.
type Viewer struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (v Viewer) IsAdmin() bool {
	return strings.EqualFold(v.Role, "admin")
}

func (r *Record) setChecklist(m task.Metric) {
	r.ChecklistTotal = m.TotalTasks
	r.ChecklistCompleted = m.CompletedTasks
	r.ChecklistPending = m.PendingTasks
	r.ChecklistProgress = m.Progress
}

func (r *Record) setDelegation(m task.Metric) {
	r.DelegationTotal = m.TotalTasks
	r.DelegationCompleted = m.CompletedTasks
	r.DelegationPending = m.PendingTasks
	r.DelegationProgress = m.Progress
}

func (r *Record) recompute() {
	r.TotalTasks = r.ChecklistTotal + r.DelegationTotal
	r.CompletedTasks = r.ChecklistCompleted + r.DelegationCompleted
	r.PendingTasks = r.ChecklistPending + r.DelegationPending
	r.Progress = task.Progress(r.CompletedTasks, r.TotalTasks)
}

// Combine merges one page of checklist metrics with one page of delegation
// metrics. Output order is checklist insertion order followed by staff that
// only appear in the delegation page.
func Combine(checklist, delegation []task.Metric) []Record {
	index := make(map[string]int, len(checklist)+len(delegation))
	records := make([]Record, 0, len(checklist)+len(delegation))

	for _, m := range checklist {
		if i, ok := index[m.Name]; ok {
			records[i].setChecklist(m)
			continue
		}

		r := Record{Name: m.Name, Email: m.Email}
		r.setChecklist(m)
		index[m.Name] = len(records)
		records = append(records, r)
	}

	for _, m := range delegation {
		if i, ok := index[m.Name]; ok {
			records[i].setDelegation(m)
			continue
		}

		r := Record{Name: m.Name, Email: m.Email}
		r.setDelegation(m)
		index[m.Name] = len(records)
		records = append(records, r)
	}

	for i := range records {
		records[i].recompute()
	}

	return records
}

// Visible returns the records whose name or email contains query, ignoring
// case. A blank query returns items as is.
func Visible(items []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	out := make([]Record, 0, len(items))
	for _, r := range items {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Email), q) {
			out = append(out, r)
		}
	}

	return out
}

// AvailableNames lists distinct staff names in first-seen order. A non-admin
// viewer always sees their own name, even without any tasks.
func AvailableNames(checklist, delegation []task.Metric, viewer Viewer) []string {
	seen := make(map[string]struct{}, len(checklist)+len(delegation))
	names := make([]string, 0, len(checklist)+len(delegation))

	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, m := range checklist {
		add(m.Name)
	}
	for _, m := range delegation {
		add(m.Name)
	}

	if !viewer.IsAdmin() {
		add(viewer.Name)
	}

	return names
}
