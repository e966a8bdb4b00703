package asana

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

//go:embed tools.json
var descriptorsJSON []byte

type handler func(ctx context.Context, args map[string]any) (any, error)

// Tools returns the Asana tool set bound to client, in catalog order.
func Tools(client *Client) ([]types.Tool, error) {
	descriptors, err := types.LoadDescriptors(descriptorsJSON)
	if err != nil {
		return nil, err
	}
	handlers := client.handlers()

	tools := make([]types.Tool, 0, len(descriptors))
	for _, descriptor := range descriptors {
		h, ok := handlers[descriptor.Name]
		if !ok {
			return nil, fmt.Errorf("asana: no handler for tool %s", descriptor.Name)
		}
		tools = append(tools, types.NewTool(descriptor, wrap(h)))
	}
	return tools, nil
}

func wrap(h handler) types.ExecuteFunc {
	return func(ctx context.Context, raw json.RawMessage) ([]byte, error) {
		args, err := types.Args(raw)
		if err != nil {
			return nil, err
		}
		result, err := h(ctx, args)
		if err != nil {
			return nil, err
		}
		return types.Result(result)
	}
}

func (c *Client) handlers() map[string]handler {
	return map[string]handler{
		"get_user":             c.getUser,
		"get_my_tasks":         c.getMyTasks,
		"list_projects":        c.listProjects,
		"get_project":          c.getProject,
		"create_project":       c.createProject,
		"list_tasks":           c.listTasks,
		"get_task":             c.getTask,
		"create_task":          c.createTask,
		"update_task":          c.updateTask,
		"complete_task":        c.completeTask,
		"delete_task":          c.deleteTask,
		"add_task_to_project":  c.addTaskToProject,
		"list_sections":        c.listSections,
		"create_section":       c.createSection,
		"move_task_to_section": c.moveTaskToSection,
		"get_subtasks":         c.getSubtasks,
		"add_comment":          c.addComment,
		"get_task_comments":    c.getTaskComments,
		"search_tasks":         c.searchTasks,
		"list_teams":           c.listTeams,
		"list_workspace_users": c.listWorkspaceUsers,
		"list_tags":            c.listTags,
	}
}

func dataOf(resp map[string]any) any {
	return resp["data"]
}

// listOf returns the data array, or an empty list when the response has none.
func listOf(resp map[string]any) []any {
	if items, ok := resp["data"].([]any); ok {
		return items
	}
	return []any{}
}

func ok(key string, value any) map[string]any {
	return map[string]any{"success": true, key: value}
}

func has(args map[string]any, key string) bool {
	_, present := args[key]
	return present
}

func (c *Client) getUser(ctx context.Context, args map[string]any) (any, error) {
	userID := types.StringArg(args, "user_id", "me")
	resp, err := c.Get(ctx, "/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	return ok("user", dataOf(resp)), nil
}

func (c *Client) getMyTasks(ctx context.Context, args map[string]any) (any, error) {
	params := url.Values{}
	params.Set("workspace", c.workspace)
	params.Set("assignee", "me")
	params.Set("limit", strconv.Itoa(types.IntArg(args, "limit", 50)))
	params.Set("opt_fields", "name,due_on,completed,notes")
	if !types.BoolArg(args, "completed", false) {
		params.Set("completed_since", "now")
	}
	resp, err := c.Get(ctx, "/tasks", params)
	if err != nil {
		return nil, err
	}
	return ok("tasks", listOf(resp)), nil
}

func (c *Client) listProjects(ctx context.Context, args map[string]any) (any, error) {
	params := url.Values{}
	params.Set("workspace", c.workspace)
	params.Set("limit", strconv.Itoa(types.IntArg(args, "limit", 50)))
	params.Set("archived", strconv.FormatBool(types.BoolArg(args, "archived", false)))
	params.Set("opt_fields", "name,notes,due_date,owner,public")
	resp, err := c.Get(ctx, "/projects", params)
	if err != nil {
		return nil, err
	}
	return ok("projects", listOf(resp)), nil
}

func (c *Client) getProject(ctx context.Context, args map[string]any) (any, error) {
	projectID, err := types.RequireString(args, "project_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/projects/"+url.PathEscape(projectID), nil)
	if err != nil {
		return nil, err
	}
	return ok("project", dataOf(resp)), nil
}

func (c *Client) createProject(ctx context.Context, args map[string]any) (any, error) {
	name, err := types.RequireString(args, "name")
	if err != nil {
		return nil, err
	}
	data := map[string]any{"workspace": c.workspace, "name": name}
	copyNonEmpty(data, args, "notes", "team", "due_date")
	if has(args, "public") {
		data["public"] = types.BoolArg(args, "public", false)
	}
	resp, err := c.Post(ctx, "/projects", data)
	if err != nil {
		return nil, err
	}
	return ok("project", dataOf(resp)), nil
}

func (c *Client) listTasks(ctx context.Context, args map[string]any) (any, error) {
	params := url.Values{}
	params.Set("opt_fields", "name,due_on,due_at,completed,assignee,notes,projects,tags")
	params.Set("limit", strconv.Itoa(types.IntArg(args, "limit", 50)))
	if project := types.StringArg(args, "project_id", ""); project != "" {
		params.Set("project", project)
	}
	if assignee := types.StringArg(args, "assignee", ""); assignee != "" {
		params.Set("assignee", assignee)
		params.Set("workspace", c.workspace)
	}
	if section := types.StringArg(args, "section", ""); section != "" {
		params.Set("section", section)
	}
	if has(args, "completed") && !types.BoolArg(args, "completed", false) {
		params.Set("completed_since", "now")
	}
	resp, err := c.Get(ctx, "/tasks", params)
	if err != nil {
		return nil, err
	}
	tasks := listOf(resp)
	return map[string]any{"success": true, "count": len(tasks), "tasks": tasks}, nil
}

func (c *Client) getTask(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}
	return ok("task", dataOf(resp)), nil
}

func (c *Client) createTask(ctx context.Context, args map[string]any) (any, error) {
	name, err := types.RequireString(args, "name")
	if err != nil {
		return nil, err
	}
	data := map[string]any{"name": name}
	copyNonEmpty(data, args, "notes", "assignee", "due_at", "parent")
	if due := types.StringArg(args, "due_date", ""); due != "" {
		data["due_on"] = due
	}

	projectID := types.StringArg(args, "project_id", "")
	if projectID != "" {
		data["projects"] = []string{projectID}
	}
	if sectionID := types.StringArg(args, "section_id", ""); sectionID != "" {
		data["memberships"] = []map[string]any{{"project": projectID, "section": sectionID}}
	}

	resp, err := c.Post(ctx, "/tasks", data)
	if err != nil {
		return nil, err
	}
	return ok("task", dataOf(resp)), nil
}

func (c *Client) updateTask(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	copyNonEmpty(data, args, "name", "notes", "assignee", "due_at")
	if due := types.StringArg(args, "due_date", ""); due != "" {
		data["due_on"] = due
	}
	if has(args, "completed") {
		data["completed"] = types.BoolArg(args, "completed", false)
	}
	resp, err := c.Put(ctx, "/tasks/"+url.PathEscape(taskID), data)
	if err != nil {
		return nil, err
	}
	return ok("task", dataOf(resp)), nil
}

func (c *Client) completeTask(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Put(ctx, "/tasks/"+url.PathEscape(taskID), map[string]any{"completed": true})
	if err != nil {
		return nil, err
	}
	return ok("task", dataOf(resp)), nil
}

func (c *Client) deleteTask(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	if err := c.Delete(ctx, "/tasks/"+url.PathEscape(taskID)); err != nil {
		return nil, err
	}
	return ok("deleted", taskID), nil
}

func (c *Client) addTaskToProject(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	projectID, err := types.RequireString(args, "project_id")
	if err != nil {
		return nil, err
	}
	data := map[string]any{"project": projectID}
	if sectionID := types.StringArg(args, "section_id", ""); sectionID != "" {
		data["section"] = sectionID
	}
	if _, err := c.Post(ctx, "/tasks/"+url.PathEscape(taskID)+"/addProject", data); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func (c *Client) listSections(ctx context.Context, args map[string]any) (any, error) {
	projectID, err := types.RequireString(args, "project_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/projects/"+url.PathEscape(projectID)+"/sections", nil)
	if err != nil {
		return nil, err
	}
	return ok("sections", listOf(resp)), nil
}

func (c *Client) createSection(ctx context.Context, args map[string]any) (any, error) {
	projectID, err := types.RequireString(args, "project_id")
	if err != nil {
		return nil, err
	}
	name, err := types.RequireString(args, "name")
	if err != nil {
		return nil, err
	}
	resp, err := c.Post(ctx, "/projects/"+url.PathEscape(projectID)+"/sections", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return ok("section", dataOf(resp)), nil
}

func (c *Client) moveTaskToSection(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	sectionID, err := types.RequireString(args, "section_id")
	if err != nil {
		return nil, err
	}
	if _, err := c.Post(ctx, "/sections/"+url.PathEscape(sectionID)+"/addTask", map[string]any{"task": taskID}); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func (c *Client) getSubtasks(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/tasks/"+url.PathEscape(taskID)+"/subtasks", nil)
	if err != nil {
		return nil, err
	}
	return ok("subtasks", listOf(resp)), nil
}

func (c *Client) addComment(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	text, err := types.RequireString(args, "text")
	if err != nil {
		return nil, err
	}
	resp, err := c.Post(ctx, "/tasks/"+url.PathEscape(taskID)+"/stories", map[string]any{"text": text})
	if err != nil {
		return nil, err
	}
	return ok("comment", dataOf(resp)), nil
}

// getTaskComments keeps only user comments; system stories are dropped.
func (c *Client) getTaskComments(ctx context.Context, args map[string]any) (any, error) {
	taskID, err := types.RequireString(args, "task_id")
	if err != nil {
		return nil, err
	}
	resp, err := c.Get(ctx, "/tasks/"+url.PathEscape(taskID)+"/stories", nil)
	if err != nil {
		return nil, err
	}
	comments := []any{}
	for _, item := range listOf(resp) {
		if story, isMap := item.(map[string]any); isMap && story["type"] == "comment" {
			comments = append(comments, story)
		}
	}
	return ok("comments", comments), nil
}

func (c *Client) searchTasks(ctx context.Context, args map[string]any) (any, error) {
	params := url.Values{}
	params.Set("opt_fields", "name,due_on,completed,assignee,projects")
	for arg, param := range map[string]string{
		"text":       "text",
		"assignee":   "assignee.any",
		"projects":   "projects.any",
		"due_on":     "due_on",
		"due_before": "due_on.before",
		"due_after":  "due_on.after",
	} {
		if value := types.StringArg(args, arg, ""); value != "" {
			params.Set(param, value)
		}
	}
	if has(args, "completed") {
		params.Set("completed", strconv.FormatBool(types.BoolArg(args, "completed", false)))
	}
	if has(args, "is_subtask") {
		params.Set("is_subtask", strconv.FormatBool(types.BoolArg(args, "is_subtask", false)))
	}

	resp, err := c.Get(ctx, "/workspaces/"+url.PathEscape(c.workspace)+"/tasks/search", params)
	if err != nil {
		return nil, err
	}
	return ok("tasks", listOf(resp)), nil
}

func (c *Client) listTeams(ctx context.Context, args map[string]any) (any, error) {
	return c.listWorkspace(ctx, args, "teams")
}

func (c *Client) listWorkspaceUsers(ctx context.Context, args map[string]any) (any, error) {
	return c.listWorkspace(ctx, args, "users")
}

func (c *Client) listTags(ctx context.Context, args map[string]any) (any, error) {
	return c.listWorkspace(ctx, args, "tags")
}

func (c *Client) listWorkspace(ctx context.Context, args map[string]any, collection string) (any, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(types.IntArg(args, "limit", 100)))
	resp, err := c.Get(ctx, "/workspaces/"+url.PathEscape(c.workspace)+"/"+collection, params)
	if err != nil {
		return nil, err
	}
	return ok(collection, listOf(resp)), nil
}

func copyNonEmpty(dst, args map[string]any, keys ...string) {
	for _, key := range keys {
		if value := types.StringArg(args, key, ""); value != "" {
			dst[key] = value
		}
	}
}
