package invoker

import (
	"fmt"
	"net/http"
	"strings"
)

// Route 操作到 REST 接口的映射。
// Path 中的 {name} 占位符取自同名参数，被占用的参数不再进入查询串或请求体。
type Route struct {
	Method string `yaml:"method" json:"method"`
	Path   string `yaml:"path" json:"path"`
	// 固定附加的查询参数
	Query map[string]string `yaml:"query,omitempty" json:"query,omitempty"`
}

// DefaultRoutes AWX 风格 /api/v2 接口映射，覆盖默认工具目录的全部操作
func DefaultRoutes() map[string]Route {
	return map[string]Route{
		// basic
		"list_job_templates":  {Method: http.MethodGet, Path: "/api/v2/job_templates/"},
		"get_job_template":    {Method: http.MethodGet, Path: "/api/v2/job_templates/{id}/"},
		"launch_job_template": {Method: http.MethodPost, Path: "/api/v2/job_templates/{id}/launch/"},
		"list_jobs":           {Method: http.MethodGet, Path: "/api/v2/jobs/"},
		"get_job":             {Method: http.MethodGet, Path: "/api/v2/jobs/{id}/"},
		"get_job_output": {
			Method: http.MethodGet, Path: "/api/v2/jobs/{id}/stdout/",
			Query: map[string]string{"format": "json"},
		},

		// inventory
		"list_inventories": {Method: http.MethodGet, Path: "/api/v2/inventories/"},
		"get_inventory":    {Method: http.MethodGet, Path: "/api/v2/inventories/{id}/"},
		"create_inventory": {Method: http.MethodPost, Path: "/api/v2/inventories/"},
		"list_hosts":       {Method: http.MethodGet, Path: "/api/v2/hosts/"},
		"get_host":         {Method: http.MethodGet, Path: "/api/v2/hosts/{id}/"},
		"add_host":         {Method: http.MethodPost, Path: "/api/v2/inventories/{inventory_id}/hosts/"},

		// users
		"list_users":  {Method: http.MethodGet, Path: "/api/v2/users/"},
		"get_user":    {Method: http.MethodGet, Path: "/api/v2/users/{id}/"},
		"create_user": {Method: http.MethodPost, Path: "/api/v2/users/"},
		"list_teams":  {Method: http.MethodGet, Path: "/api/v2/teams/"},

		// projects
		"list_projects":  {Method: http.MethodGet, Path: "/api/v2/projects/"},
		"get_project":    {Method: http.MethodGet, Path: "/api/v2/projects/{id}/"},
		"create_project": {Method: http.MethodPost, Path: "/api/v2/projects/"},
		"sync_project":   {Method: http.MethodPost, Path: "/api/v2/projects/{id}/update/"},

		// organizations
		"list_organizations":  {Method: http.MethodGet, Path: "/api/v2/organizations/"},
		"get_organization":    {Method: http.MethodGet, Path: "/api/v2/organizations/{id}/"},
		"create_organization": {Method: http.MethodPost, Path: "/api/v2/organizations/"},

		// schedules
		"list_schedules":  {Method: http.MethodGet, Path: "/api/v2/schedules/"},
		"create_schedule": {Method: http.MethodPost, Path: "/api/v2/schedules/"},
		"update_schedule": {Method: http.MethodPatch, Path: "/api/v2/schedules/{id}/"},
		"delete_schedule": {Method: http.MethodDelete, Path: "/api/v2/schedules/{id}/"},

		// advanced
		"create_job_template":      {Method: http.MethodPost, Path: "/api/v2/job_templates/"},
		"update_job_template":      {Method: http.MethodPatch, Path: "/api/v2/job_templates/{id}/"},
		"delete_job_template":      {Method: http.MethodDelete, Path: "/api/v2/job_templates/{id}/"},
		"create_workflow_template": {Method: http.MethodPost, Path: "/api/v2/workflow_job_templates/"},
		"launch_workflow_template": {Method: http.MethodPost, Path: "/api/v2/workflow_job_templates/{id}/launch/"},
		"list_credentials":         {Method: http.MethodGet, Path: "/api/v2/credentials/"},
		"create_credential":        {Method: http.MethodPost, Path: "/api/v2/credentials/"},
	}
}

// expand 替换路径占位符，返回展开后的路径与未被占用的参数
func (r Route) expand(args map[string]any) (string, map[string]any, error) {
	rest := make(map[string]any, len(args))
	for k, v := range args {
		rest[k] = v
	}

	var b strings.Builder
	path := r.Path
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			b.WriteString(path)
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return "", nil, fmt.Errorf("malformed route path %q", r.Path)
		}
		name := path[open+1 : open+end]
		v, ok := rest[name]
		if !ok || v == nil || fmt.Sprint(v) == "" {
			return "", nil, fmt.Errorf("missing required parameter %q", name)
		}
		delete(rest, name)

		b.WriteString(path[:open])
		b.WriteString(pathValue(v))
		path = path[open+end+1:]
	}
	return b.String(), rest, nil
}

// pathValue JSON 数字解码为 float64，整数值按整数输出
func pathValue(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}
