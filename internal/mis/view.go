package mis

import (
	"strings"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/staff"
)

// View is what the dashboard renders for one report.
type View struct {
	Filter               string         `json:"filter"`
	SearchQuery          string         `json:"search_query,omitempty"`
	CurrentPage          int            `json:"current_page"`
	FilteredStaffMembers []staff.Record `json:"filtered_staff_members"`
	StaffMembers         []staff.Record `json:"staff_members"`
	AvailableStaff       []string       `json:"available_staff"`
	TotalUsersCount      int            `json:"total_users_count"`
	TotalStaffCount      int            `json:"total_staff_count"`
	HasMoreData          bool           `json:"has_more_data"`
	IsLoading            bool           `json:"is_loading"`
}

// NewView filters the loaded window by query. While a search is active the
// report offers no further pages, since search only covers loaded records.
func NewView(s State, available []string, query string) View {
	query = strings.TrimSpace(query)
	if available == nil {
		available = []string{}
	}

	items := s.Items
	if items == nil {
		items = []staff.Record{}
	}

	return View{
		Filter:               s.Filter,
		SearchQuery:          query,
		CurrentPage:          s.CurrentPage,
		FilteredStaffMembers: staff.Visible(items, query),
		StaffMembers:         items,
		AvailableStaff:       available,
		TotalUsersCount:      s.TotalUsersCount,
		TotalStaffCount:      s.TotalStaffCount,
		HasMoreData:          s.HasMore && query == "",
		IsLoading:            s.Loading,
	}
}
