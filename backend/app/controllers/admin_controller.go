package controllers

import (
	"net/http"
	"pollhub/backend/app/dto"
	"pollhub/backend/app/services"
)

type AdminController struct{ Registry *services.RegistryService }

func NewAdminController(registry *services.RegistryService) *AdminController {
	return &AdminController{Registry: registry}
}

// Clients: GET /api/admin/clients/{domain}
func (c *AdminController) Clients(w http.ResponseWriter, r *http.Request) {
	list, err := c.Registry.ListClients(r.Context(), r.PathValue("domain"))
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ClientsResponse{Clients: list})
}

// SendCommand: POST /api/admin/send_command
func (c *AdminController) SendCommand(w http.ResponseWriter, r *http.Request) {
	var req dto.SendCommandRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}
	if err := c.Registry.EnqueueCommand(r.Context(), req.Domain, req.ClientID, req.Command); err != nil {
		writeStatusError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess})
}

// GetResults: GET /api/admin/get_results/{domain}/{client_id}
func (c *AdminController) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := c.Registry.FetchResults(r.Context(), r.PathValue("domain"), r.PathValue("client_id"))
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResultsResponse{Results: results})
}
