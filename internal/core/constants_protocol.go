package core

// Default config constants
const (
	DefaultPort              = "7860"
	DefaultGinMode           = "release"
	DefaultAllowedModelsPath = "allowed_models.json"
	DefaultFallbackModel     = "flux-schnell"
	CORSMaxAge               = "86400"
)

// Content type and header constants
const (
	ContentTypeJSON     = "application/json"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
	HeaderXAPIKey       = "x-api-key"
	AuthBearerPrefix    = "Bearer "
)

// Refresh action tags
const (
	ActionModelInit    = "async_model_init"
	ActionModelRefresh = "model_refresh"
	ErrorTypeSuffix    = "_error"
)

// Refresh event statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ContextKeyFallbackModel is the error-context key naming the installed fallback.
const ContextKeyFallbackModel = "fallback_model"
