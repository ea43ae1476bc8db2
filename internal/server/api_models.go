package server

// ScanRequestBody is the payload for POST /scan and POST /jobs.
type ScanRequestBody struct {
	URL string `json:"url" example:"https://example.com"`
}

// ErrorResponse is a uniform error payload returned by the API. Code is
// omitted for rate-limited responses; Debug is only set for SCAN_FAILED.
type ErrorResponse struct {
	Error string `json:"error" example:"Could not load the website. Please check the URL."`
	Code  string `json:"code,omitempty" example:"NAVIGATION_FAILED"`
	Debug string `json:"debug,omitempty" example:"navigation failed: net::ERR_NAME_NOT_RESOLVED"`
}

// HealthResponse reports which optional subsystems are wired.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	History bool   `json:"history" example:"true"`
	Jobs    bool   `json:"jobs" example:"true"`
}
