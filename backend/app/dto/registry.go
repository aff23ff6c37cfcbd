package dto

import "pollhub/backend/app/models"

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusOnline   = "online"
	StatusNotFound = "not_found"
)

type RegisterRequest struct {
	Domain   string         `json:"domain"`
	ClientID string         `json:"client_id"`
	Info     map[string]any `json:"info"`
}

type SendResultRequest struct {
	Domain   string `json:"domain"`
	ClientID string `json:"client_id"`
	Command  string `json:"command"`
	Result   string `json:"result"`
}

type SendCommandRequest struct {
	Domain   string `json:"domain"`
	ClientID string `json:"client_id"`
	Command  string `json:"command"`
}

// StatusResponse is returned by register, send_result and send_command.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type CheckCommandsResponse struct {
	Commands []models.CommandEntry `json:"commands"`
	Status   string                `json:"status"`
}

type ClientsResponse struct {
	Clients []models.ClientSummary `json:"clients"`
}

type ResultsResponse struct {
	Results []models.ResultEntry `json:"results"`
}
