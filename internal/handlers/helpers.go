package handlers

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error string `json:"error"`
	// RemainingAttempts is set on wrong-code verification failures
	RemainingAttempts *int `json:"remaining_attempts,omitempty"`
}

// SuccessResponse is the standard success payload
type SuccessResponse struct {
	Message string `json:"message"`
}
