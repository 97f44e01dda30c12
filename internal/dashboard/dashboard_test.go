package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/repository"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDashboard(t *testing.T) (*Dashboard, *repository.MockRepository, *session.RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store, err := session.NewRedisStore(mr.Addr(), time.Hour)
	require.NoError(t, err)

	repo := repository.NewMockRepository()
	past := time.Now().Add(-48 * time.Hour)
	done := time.Now().Add(-24 * time.Hour)
	for i, name := range []string{"Alice", "Alice", "Bob", "Carol"} {
		tk := task.Task{ID: int64(i + 1), Category: task.CategoryChecklist, Name: name, PlannedDate: past, Status: task.StatusPending}
		if i == 0 {
			tk.SubmittedAt = &done
			tk.Status = task.StatusCompleted
		}
		repo.AddTask(tk)
	}
	repo.AddTask(task.Task{ID: 10, Category: task.CategoryDelegation, Name: "Bob", PlannedDate: past, Status: task.StatusPending})
	repo.Users = 4

	reg := session.NewRegistry(repo, store, 2)

	return NewDashboard(reg, repo), repo, store, mr
}

func createSession(t *testing.T, dash *Dashboard, body string) SessionResponse {
	req := httptest.NewRequest("POST", "/api/mis/sessions", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	dash.CreateSession(w, req)
	require.Equal(t, 201, w.Code, w.Body.String())

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateSession(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	resp := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"}}`)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "all", resp.Filter)
	assert.Equal(t, 1, resp.CurrentPage)
	assert.True(t, resp.HasMoreData)
	assert.False(t, resp.IsLoading)
	assert.Equal(t, 3, resp.TotalStaffCount)
	assert.Equal(t, 4, resp.TotalUsersCount)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, resp.AvailableStaff)
	require.Len(t, resp.StaffMembers, 2)
	assert.Equal(t, "Alice", resp.StaffMembers[0].Name)
	assert.Equal(t, 50, resp.StaffMembers[0].Progress)
	assert.Equal(t, 2, resp.StaffMembers[1].TotalTasks)
	assert.Equal(t, 1, resp.StaffMembers[1].DelegationTotal)
}

func TestCreateSession_Validation(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing viewer", `{"filter":"all"}`},
		{"blank viewer", `{"viewer":{"name":"  "}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/mis/sessions", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			dash.CreateSession(w, req)
			assert.Equal(t, 400, w.Code)
		})
	}
}

func TestCreateSession_FetchFailure(t *testing.T) {
	dash, repo, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	repo.FetchStaffTasksError = errors.New("connection refused")

	req := httptest.NewRequest("POST", "/api/mis/sessions", bytes.NewBufferString(`{"viewer":{"name":"Root","role":"admin"}}`))
	w := httptest.NewRecorder()

	dash.CreateSession(w, req)
	assert.Equal(t, 502, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestCreateSession_NonAdminSeesSelf(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	resp := createSession(t, dash, `{"viewer":{"name":"Dave","role":"user"},"filter":"Dave"}`)

	assert.Equal(t, "Dave", resp.Filter)
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "Dave"}, resp.AvailableStaff)
	assert.Empty(t, resp.StaffMembers)
	assert.NotNil(t, resp.StaffMembers)
	assert.False(t, resp.HasMoreData)
}

func TestGetSession_Search(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	created := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"}}`)

	req := httptest.NewRequest("GET", "/api/mis/sessions/"+created.ID+"?q=bo", nil)
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	dash.GetSession(w, req)
	require.Equal(t, 200, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "bo", resp.SearchQuery)
	assert.Len(t, resp.StaffMembers, 2)
	require.Len(t, resp.FilteredStaffMembers, 1)
	assert.Equal(t, "Bob", resp.FilteredStaffMembers[0].Name)
	assert.False(t, resp.HasMoreData, "search hides load more")
}

func TestGetSession_NotFound(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	req := httptest.NewRequest("GET", "/api/mis/sessions/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	dash.GetSession(w, req)
	assert.Equal(t, 404, w.Code)
}

func TestLoadMore(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	created := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"}}`)

	req := httptest.NewRequest("POST", "/api/mis/sessions/"+created.ID+"/more", nil)
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	dash.LoadMore(w, req)
	require.Equal(t, 200, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.CurrentPage)
	assert.Len(t, resp.StaffMembers, 3)
	assert.Equal(t, "Carol", resp.StaffMembers[2].Name)
	assert.False(t, resp.HasMoreData)
}

func TestSetFilter(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	created := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"}}`)

	req := httptest.NewRequest("PUT", "/api/mis/sessions/"+created.ID+"/filter", bytes.NewBufferString(`{"filter":"Carol"}`))
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	dash.SetFilter(w, req)
	require.Equal(t, 200, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Carol", resp.Filter)
	assert.Equal(t, 1, resp.CurrentPage)
	require.Len(t, resp.StaffMembers, 1)
	assert.Equal(t, "Carol", resp.StaffMembers[0].Name)
	assert.Equal(t, 1, resp.TotalStaffCount)
}

func TestSetFilter_BlankMeansAll(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	created := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"},"filter":"Bob"}`)
	assert.Equal(t, "Bob", created.Filter)

	req := httptest.NewRequest("PUT", "/api/mis/sessions/"+created.ID+"/filter", bytes.NewBufferString(`{"filter":""}`))
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	dash.SetFilter(w, req)
	require.Equal(t, 200, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "all", resp.Filter)
	assert.Len(t, resp.StaffMembers, 2)
}

func TestDeleteSession(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	created := createSession(t, dash, `{"viewer":{"name":"Root","role":"admin"}}`)

	req := httptest.NewRequest("DELETE", "/api/mis/sessions/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	dash.DeleteSession(w, req)
	assert.Equal(t, 204, w.Code)

	req = httptest.NewRequest("GET", "/api/mis/sessions/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w = httptest.NewRecorder()

	dash.GetSession(w, req)
	assert.Equal(t, 404, w.Code)
}

func TestStaffMetrics(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	req := httptest.NewRequest("GET", "/api/staff/metrics?page=2&page_size=2", nil)
	w := httptest.NewRecorder()

	dash.StaffMetrics(w, req)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var page StaffPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))

	assert.Equal(t, "all", page.Filter)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.False(t, page.HasMore)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Carol", page.Records[0].Name)
}

func TestStaffMetrics_InvalidParams(t *testing.T) {
	dash, _, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	for _, query := range []string{"page=abc", "page=0", "page_size=0", "page_size=101"} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/staff/metrics?"+query, nil)
			w := httptest.NewRecorder()

			dash.StaffMetrics(w, req)
			assert.Equal(t, 400, w.Code)
		})
	}
}

func TestStaffMetrics_FetchFailure(t *testing.T) {
	dash, repo, store, mr := setupTestDashboard(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	repo.FetchStaffTasksError = errors.New("timeout")

	req := httptest.NewRequest("GET", "/api/staff/metrics", nil)
	w := httptest.NewRecorder()

	dash.StaffMetrics(w, req)
	assert.Equal(t, 502, w.Code)
	assert.Contains(t, w.Body.String(), "fetch_staff_tasks")
}
