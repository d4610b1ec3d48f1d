package http

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"region_id"`
	Message string                 `json:"message,omitempty" example:"region_id is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
