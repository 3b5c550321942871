package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
	SessionCookieName   = "tax_task_session"
)

// Authentication
const (
	LocalTokenPrefix  = "mock-token-"
	BearerPrefix      = "Bearer "
	MinPasswordLength = 6
	ResetTokenTTL     = 30 * time.Minute
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Uploads
const (
	MaxUploadSize = 10 << 20
)

// Obligation calendar
const (
	MinAgendaYear       = 2000
	MaxAgendaYear       = 2100
	MaxAIExtractedItems = 50
)
