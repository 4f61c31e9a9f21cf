package exposure

// DefaultToolGroups 自动化平台（AWX 风格）操作的默认分层
func DefaultToolGroups() []ToolGroup {
	return []ToolGroup{
		{Tier: TierBasic, Operations: []string{
			"list_job_templates", "get_job_template", "launch_job_template",
			"list_jobs", "get_job", "get_job_output",
		}},
		{Tier: TierInventory, Operations: []string{
			"list_inventories", "get_inventory", "create_inventory",
			"list_hosts", "get_host", "add_host",
		}},
		{Tier: TierUsers, Operations: []string{
			"list_users", "get_user", "create_user", "list_teams",
		}},
		{Tier: TierProjects, Operations: []string{
			"list_projects", "get_project", "create_project", "sync_project",
		}},
		{Tier: TierOrganizations, Operations: []string{
			"list_organizations", "get_organization", "create_organization",
		}},
		{Tier: TierSchedules, Operations: []string{
			"list_schedules", "create_schedule", "update_schedule", "delete_schedule",
		}},
		{Tier: TierAdvanced, Operations: []string{
			"create_job_template", "update_job_template", "delete_job_template",
			"create_workflow_template", "launch_workflow_template",
			"list_credentials", "create_credential",
		}},
	}
}

// DefaultComplexTools 参数结构或副作用对低能力模型风险较高的操作
func DefaultComplexTools() []string {
	return []string{
		"create_job_template",
		"update_job_template",
		"create_workflow_template",
		"launch_workflow_template",
		"create_credential",
		"create_schedule",
	}
}

// DefaultCatalog 内置目录
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultToolGroups(), DefaultComplexTools())
}
