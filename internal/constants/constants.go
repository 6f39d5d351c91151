package constants

// Context keys
const (
	ContextKeyPrincipal = "principal"
	ContextKeyRequestID = "request_id"
)

const HeaderRequestID = "X-Request-ID"

// Role labels
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)
