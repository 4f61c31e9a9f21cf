package fallback

import "fmt"

// defaultInstructions 复杂操作的固定操作指引
var defaultInstructions = map[string]string{
	"create_job_template": "To create a job template: pick a project, an inventory, a playbook from that project " +
		"and a machine credential, then create the template referencing their ids.",
	"update_job_template": "To update a job template: fetch the current template, change only the fields that " +
		"need to differ and send those fields back.",
	"create_workflow_template": "To create a workflow template: create the empty workflow first, then add job " +
		"template nodes one at a time and connect them with success or failure edges.",
	"launch_workflow_template": "To launch a workflow template: review its survey and extra variables, confirm " +
		"them with the user, launch, then poll the workflow job status.",
	"create_credential": "To create a credential: look up the credential type's required inputs and have the " +
		"user supply secret values directly. Never echo secrets back.",
	"create_schedule": "To create a schedule: choose the template to run and express the recurrence as an " +
		"RRULE with a start time and timezone.",
}

// Instructions 返回操作的固定指引，未登记的操作返回通用提示
func (o *Orchestrator) Instructions(operation string) string {
	if text, ok := o.instructions[operation]; ok {
		return text
	}
	return genericInstructions(operation)
}

func genericInstructions(operation string) string {
	return fmt.Sprintf("Operation %q is complex. Break it into smaller steps and confirm each parameter before executing it.", operation)
}
