package asana

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.New(slog.LevelError, logger.FormatText, io.Discard))
	os.Exit(m.Run())
}

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Auth   string
	Body   map[string]any
}

type fakeAsana struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response any
}

func (f *fakeAsana) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: map[string]string{}, Auth: r.Header.Get("Authorization")}
	for key := range r.URL.Query() {
		rec.Query[key] = r.URL.Query().Get(key)
	}
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func (f *fakeAsana) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fake *fakeAsana) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Token: "secret", WorkspaceGID: "ws1", BaseURL: server.URL, RetryMax: 0})
	require.NoError(t, err)
	return client
}

func run(t *testing.T, client *Client, name string, args map[string]any) (map[string]any, error) {
	t.Helper()
	tools, err := Tools(client)
	require.NoError(t, err)
	for _, tool := range tools {
		if tool.Name() != name {
			continue
		}
		raw, _ := json.Marshal(args)
		out, err := tool.Execute(context.Background(), raw)
		if err != nil {
			return nil, err
		}
		var result map[string]any
		require.NoError(t, json.Unmarshal(out, &result))
		return result, nil
	}
	t.Fatalf("tool %s not found", name)
	return nil, nil
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestToolsCoverEveryDescriptor(t *testing.T) {
	client, err := NewClient(Config{Token: "x"})
	require.NoError(t, err)
	tools, err := Tools(client)
	require.NoError(t, err)

	assert.Len(t, tools, 22)
	assert.Equal(t, "get_user", tools[0].Name())
	assert.Equal(t, "list_tags", tools[len(tools)-1].Name())
	for _, tool := range tools {
		assert.Contains(t, tool.Description(), "[ASANA]", tool.Name())
		assert.Equal(t, "object", tool.InputSchema().Type, tool.Name())
	}
}

func TestGetMyTasks(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": []any{map[string]any{"gid": "1", "name": "Ship"}}}}
	client := newTestClient(t, fake)

	result, err := run(t, client, "get_my_tasks", map[string]any{"limit": 5})
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
	assert.Len(t, result["tasks"], 1)

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.Equal(t, map[string]string{
		"workspace":       "ws1",
		"assignee":        "me",
		"limit":           "5",
		"opt_fields":      "name,due_on,completed,notes",
		"completed_since": "now",
	}, req.Query)
}

func TestCreateTaskWrapsBody(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": map[string]any{"gid": "99"}}}
	client := newTestClient(t, fake)

	result, err := run(t, client, "create_task", map[string]any{
		"name":       "Write report",
		"project_id": "p1",
		"section_id": "s1",
		"due_date":   "2026-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"gid": "99"}, result["task"])

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	data := req.Body["data"].(map[string]any)
	assert.Equal(t, "Write report", data["name"])
	assert.Equal(t, "2026-01-31", data["due_on"])
	assert.Equal(t, []any{"p1"}, data["projects"])
	assert.Equal(t, []any{map[string]any{"project": "p1", "section": "s1"}}, data["memberships"])
	assert.NotContains(t, data, "due_date")
}

func TestUpdateTaskSendsOnlyGivenFields(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": map[string]any{"gid": "7"}}}
	client := newTestClient(t, fake)

	_, err := run(t, client, "update_task", map[string]any{"task_id": "7", "completed": false})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/tasks/7", req.Path)
	assert.Equal(t, map[string]any{"data": map[string]any{"completed": false}}, req.Body)
}

func TestDeleteTask(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": map[string]any{}}}
	client := newTestClient(t, fake)

	result, err := run(t, client, "delete_task", map[string]any{"task_id": "42"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"success": true, "deleted": "42"}, result)
	assert.Equal(t, http.MethodDelete, fake.last(t).Method)
}

func TestGetTaskCommentsFiltersStories(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": []any{
		map[string]any{"gid": "1", "type": "comment", "text": "hi"},
		map[string]any{"gid": "2", "type": "system", "text": "moved"},
	}}}
	client := newTestClient(t, fake)

	result, err := run(t, client, "get_task_comments", map[string]any{"task_id": "5"})
	require.NoError(t, err)
	comments := result["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "1", comments[0].(map[string]any)["gid"])
	assert.Equal(t, "/tasks/5/stories", fake.last(t).Path)
}

func TestSearchTasksParams(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": []any{}}}
	client := newTestClient(t, fake)

	_, err := run(t, client, "search_tasks", map[string]any{
		"text":       "budget",
		"assignee":   "me",
		"due_before": "2026-02-01",
		"is_subtask": false,
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/workspaces/ws1/tasks/search", req.Path)
	assert.Equal(t, "budget", req.Query["text"])
	assert.Equal(t, "me", req.Query["assignee.any"])
	assert.Equal(t, "2026-02-01", req.Query["due_on.before"])
	assert.Equal(t, "false", req.Query["is_subtask"])
	assert.NotContains(t, req.Query, "completed")
}

func TestListWorkspaceCollections(t *testing.T) {
	fake := &fakeAsana{response: map[string]any{"data": []any{map[string]any{"gid": "t"}}}}
	client := newTestClient(t, fake)

	for tool, key := range map[string]string{"list_teams": "teams", "list_workspace_users": "users", "list_tags": "tags"} {
		result, err := run(t, client, tool, nil)
		require.NoError(t, err, tool)
		assert.Len(t, result[key], 1, tool)
		req := fake.last(t)
		assert.Equal(t, "/workspaces/ws1/"+key, req.Path)
		assert.Equal(t, "100", req.Query["limit"])
	}
}

func TestMissingRequiredArgument(t *testing.T) {
	fake := &fakeAsana{}
	client := newTestClient(t, fake)

	_, err := run(t, client, "get_task", map[string]any{})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.SemanticKindInvalidArguments))
	assert.Empty(t, fake.requests)
}

func TestAPIErrorSurfacesStatus(t *testing.T) {
	fake := &fakeAsana{status: http.StatusForbidden, response: map[string]any{"errors": []any{map[string]any{"message": "Forbidden"}}}}
	client := newTestClient(t, fake)

	_, err := run(t, client, "get_project", map[string]any{"project_id": "p"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "Forbidden")
}
