package models

// ErrorResponse is the structured error body used by the auth endpoints,
// with a machine-readable code for the frontend to branch on.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}
