package controllers

import (
	"net/http"
	"pollhub/backend/app/dto"
	"pollhub/backend/app/services"
)

// AgentController serves the agent-facing endpoints: register, poll, send result.
type AgentController struct{ Registry *services.RegistryService }

func NewAgentController(registry *services.RegistryService) *AgentController {
	return &AgentController{Registry: registry}
}

// Register: POST /api/register
func (c *AgentController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if err := c.Registry.Register(r.Context(), req.Domain, req.ClientID, req.Info); err != nil {
		writeStatusError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess, Message: "Registered"})
}

// CheckCommands: GET /api/check_commands/{domain}/{client_id}
func (c *AgentController) CheckCommands(w http.ResponseWriter, r *http.Request) {
	cmds, found, err := c.Registry.PollCommands(r.Context(), r.PathValue("domain"), r.PathValue("client_id"))
	if err != nil {
		writeStatusError(w, r, err)
		return
	}
	status := dto.StatusOnline
	if !found {
		status = dto.StatusNotFound
	}
	writeJSON(w, http.StatusOK, dto.CheckCommandsResponse{Commands: cmds, Status: status})
}

// SendResult: POST /api/send_result
func (c *AgentController) SendResult(w http.ResponseWriter, r *http.Request) {
	var req dto.SendResultRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if err := c.Registry.SubmitResult(r.Context(), req.Domain, req.ClientID, req.Command, req.Result); err != nil {
		writeStatusError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess})
}
