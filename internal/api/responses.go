// Package api holds the response envelopes shared across handler packages.
package api

type ErrorResponse struct {
	Error string `json:"error" example:"member not found"`
}

type MessageResponse struct {
	Message string `json:"message" example:"member deleted"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
