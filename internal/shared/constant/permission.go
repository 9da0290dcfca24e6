package constant

// Casbin objects.
const (
	PermIdentityUsers         = "identity:users"
	PermIdentityRegistrations = "identity:registrations"
)

// Casbin actions.
const (
	PermActRead   = "read"
	PermActExport = "export"
	PermActDelete = "delete"
)
