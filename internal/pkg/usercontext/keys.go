package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserID      = "user_id"
	KeyIsAdmin     = "isAdmin"
)

// HeaderUserID is set by the upstream auth layer for authenticated calls.
const HeaderUserID = "X-User-ID"
