package fallback

import (
	"fmt"
)

// Complexity 复杂度估计
type Complexity string

const (
	ComplexityModerate Complexity = "moderate"
	ComplexityHigh     Complexity = "high"
)

// StatusFallback 预设计划结果中的 status 值
const StatusFallback = "fallback"

// Plan 预设回退返回的结构化描述，只描述做法，不对外部系统产生任何作用
type Plan struct {
	Operation      string     `json:"operation"`
	Summary        string     `json:"result"`
	Steps          []string   `json:"steps"`
	Complexity     Complexity `json:"complexity"`
	Recommendation string     `json:"recommendation"`
}

// AsMap 转成与 JSON 解码结果同形的映射，供后续响应简化统一处理
func (p Plan) AsMap() map[string]any {
	steps := make([]any, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = s
	}
	return map[string]any{
		"status":         StatusFallback,
		"operation":      p.Operation,
		"result":         p.Summary,
		"steps":          steps,
		"step_count":     len(p.Steps),
		"complexity":     string(p.Complexity),
		"recommendation": p.Recommendation,
	}
}

// Handler 根据调用参数生成预设计划
type Handler func(args map[string]any) Plan

// DefaultHandlers 内置的预设回退
func DefaultHandlers() map[string]Handler {
	return map[string]Handler{
		"create_job_template":      createJobTemplatePlan,
		"create_workflow_template": createWorkflowTemplatePlan,
		"create_credential":        createCredentialPlan,
		"launch_workflow_template": launchWorkflowTemplatePlan,
	}
}

func createJobTemplatePlan(args map[string]any) Plan {
	name := argString(args, "name", "the new job template")
	return Plan{
		Operation: "create_job_template",
		Summary:   fmt.Sprintf("Creating %s requires several prerequisites; follow the steps below instead of a single call.", name),
		Steps: []string{
			"List projects and pick the project that contains the playbook",
			"List inventories and pick the target inventory",
			"Confirm the playbook path exists in the selected project",
			"List credentials and pick the machine credential",
			fmt.Sprintf("Create %s with the collected project, inventory, playbook and credential", name),
		},
		Complexity:     ComplexityHigh,
		Recommendation: "Use a model with stronger reasoning for template creation, or collect each prerequisite with separate simple calls.",
	}
}

func createWorkflowTemplatePlan(args map[string]any) Plan {
	name := argString(args, "name", "the new workflow template")
	return Plan{
		Operation: "create_workflow_template",
		Summary:   fmt.Sprintf("Building %s involves chaining job templates; plan the graph before creating it.", name),
		Steps: []string{
			"List the job templates that will become workflow nodes",
			"Decide the order of nodes and the success and failure edges",
			fmt.Sprintf("Create %s without nodes", name),
			"Add each node and link it to its predecessor",
			"Review the workflow graph before the first launch",
		},
		Complexity:     ComplexityHigh,
		Recommendation: "Design the workflow graph with an operator, then create nodes one at a time.",
	}
}

func createCredentialPlan(args map[string]any) Plan {
	kind := argString(args, "credential_type", "the required credential type")
	return Plan{
		Operation: "create_credential",
		Summary:   "Credentials carry secrets and type specific fields; they should be entered deliberately.",
		Steps: []string{
			fmt.Sprintf("Look up the input fields of %s", kind),
			"Choose the organization that will own the credential",
			"Collect the secret values from a secure source, never from chat history",
			"Create the credential and verify it with a test job",
		},
		Complexity:     ComplexityModerate,
		Recommendation: "Ask an administrator to create the credential through the platform UI.",
	}
}

func launchWorkflowTemplatePlan(args map[string]any) Plan {
	target := argString(args, "workflow_template_id", "the workflow template")
	return Plan{
		Operation: "launch_workflow_template",
		Summary:   fmt.Sprintf("Launching %s starts several jobs; confirm its inputs first.", target),
		Steps: []string{
			fmt.Sprintf("Fetch %s and review its survey and extra variables", target),
			"Confirm the inventory and limit the workflow will run against",
			"Launch the workflow",
			"Poll the workflow job until every node finishes",
		},
		Complexity:     ComplexityModerate,
		Recommendation: "Have the user confirm the launch parameters before starting the workflow.",
	}
}

func argString(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return fallback
}
