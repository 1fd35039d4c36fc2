package auth

const (
	PermManageUsers         = "manage_users"
	PermManageDepartments   = "manage_departments"
	PermManageRoles         = "manage_roles"
	PermManagePermissions   = "manage_permissions"
	PermViewPermissions     = "view_permissions"
	PermChangeMessageStatus = "change_message_status"
	PermViewReports         = "view_reports"
	PermViewAllMessages     = "view_all_messages"
	PermDeleteMessages      = "delete_messages"
	PermManageGroups        = "manage_groups"
)

const (
	RoleAdmin      = "admin"
	RoleUser       = "user"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
)

type PermissionDef struct {
	Name        string
	DisplayName string
	Critical    bool
}

type PermissionGroupDef struct {
	Name        string
	DisplayName string
	Description string
	Icon        string
	Order       int
	Permissions []PermissionDef
}

type RoleDef struct {
	Name        string
	Description string
	System      bool
	Permissions []string
}

// Catalog is the permission set seeded into a fresh database.
var Catalog = []PermissionGroupDef{
	{
		Name: "user_management", DisplayName: "User management", Icon: "fa-users", Order: 1,
		Description: "Manage user accounts",
		Permissions: []PermissionDef{
			{Name: PermManageUsers, DisplayName: "Manage users", Critical: true},
			{Name: "view_users", DisplayName: "View users"},
			{Name: "create_users", DisplayName: "Create users", Critical: true},
			{Name: "edit_users", DisplayName: "Edit users"},
			{Name: "deactivate_users", DisplayName: "Deactivate users", Critical: true},
		},
	},
	{
		Name: "department_management", DisplayName: "Department management", Icon: "fa-building", Order: 2,
		Description: "Manage departments and organizational units",
		Permissions: []PermissionDef{
			{Name: PermManageDepartments, DisplayName: "Manage departments"},
			{Name: "view_departments", DisplayName: "View departments"},
			{Name: "create_departments", DisplayName: "Create departments"},
			{Name: "edit_departments", DisplayName: "Edit departments"},
			{Name: "delete_departments", DisplayName: "Delete departments"},
		},
	},
	{
		Name: "role_management", DisplayName: "Role management", Icon: "fa-user-tag", Order: 3,
		Description: "Manage roles and their permissions",
		Permissions: []PermissionDef{
			{Name: PermManageRoles, DisplayName: "Manage roles", Critical: true},
			{Name: "view_roles", DisplayName: "View roles"},
			{Name: "create_roles", DisplayName: "Create roles", Critical: true},
			{Name: "edit_roles", DisplayName: "Edit roles", Critical: true},
			{Name: "delete_roles", DisplayName: "Delete roles", Critical: true},
		},
	},
	{
		Name: "permission_management", DisplayName: "Permission management", Icon: "fa-key", Order: 4,
		Description: "Manage user permissions",
		Permissions: []PermissionDef{
			{Name: PermManagePermissions, DisplayName: "Manage permissions", Critical: true},
			{Name: PermViewPermissions, DisplayName: "View permissions"},
			{Name: "assign_permissions", DisplayName: "Assign permissions", Critical: true},
		},
	},
	{
		Name: "message_management", DisplayName: "Message management", Icon: "fa-envelope", Order: 5,
		Description: "Manage messages and correspondence",
		Permissions: []PermissionDef{
			{Name: "manage_messages", DisplayName: "Manage messages"},
			{Name: PermViewAllMessages, DisplayName: "View all messages"},
			{Name: PermDeleteMessages, DisplayName: "Delete messages", Critical: true},
			{Name: "archive_messages", DisplayName: "Archive messages"},
			{Name: PermManageGroups, DisplayName: "Manage user groups"},
		},
	},
	{
		Name: "message_status_management", DisplayName: "Message status management", Icon: "fa-exchange-alt", Order: 6,
		Description: "Change and track message status",
		Permissions: []PermissionDef{
			{Name: PermChangeMessageStatus, DisplayName: "Change message status"},
			{Name: "view_message_status_history", DisplayName: "View status history"},
		},
	},
	{
		Name: "reports", DisplayName: "Reports", Icon: "fa-chart-bar", Order: 7,
		Description: "View and export reports",
		Permissions: []PermissionDef{
			{Name: PermViewReports, DisplayName: "View reports"},
			{Name: "export_reports", DisplayName: "Export reports"},
		},
	},
	{
		Name: "system_management", DisplayName: "System management", Icon: "fa-cogs", Order: 8,
		Description: "System settings and logs",
		Permissions: []PermissionDef{
			{Name: "view_system_logs", DisplayName: "View system logs"},
			{Name: "manage_system_settings", DisplayName: "Manage system settings", Critical: true},
		},
	},
}

var DefaultRoles = []RoleDef{
	{Name: RoleAdmin, Description: "System administrator", System: true},
	{Name: RoleUser, Description: "Regular user", System: true},
	{Name: RoleManager, Description: "Department manager", Permissions: []string{PermChangeMessageStatus, PermViewReports}},
	{Name: RoleSupervisor, Description: "Supervisor"},
}
