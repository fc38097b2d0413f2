package handlers

const (
	StatusOK  = "OK"
	StatusNOK = "NOK"

	HeaderRequestID  = "X-Request-ID"
	HeaderAdminToken = "X-Admin-Token"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrEmptyBody           = "Request body is required"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, please slow down"

	maxBodyBytes = 1 << 20
)
