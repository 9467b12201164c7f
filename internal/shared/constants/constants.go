package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"

	// Content Types
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	// Context keys
	ContextKeyDeviceToken  = "device_token"
	ContextKeyAccountID    = "account_id"
	ContextKeyAccountEmail = "account_email"
	ContextKeyRequestID    = "request_id"

	// Device identity cookie
	DeviceCookieName   = "amica_device"
	DeviceCookieMaxAge = 365 * 24 * 60 * 60 // one year

	// Database table names
	TableAccessGrants  = "access_grants"
	TableBillingOrders = "billing_orders"
	TableUserProfiles  = "user_profiles"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgValidationFailed    = "Validation failed"
)
