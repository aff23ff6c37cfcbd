package router

import (
	"net/http"
	"pollhub/backend/app/controllers"
)

func NewRouter(httpCtrl *controllers.HTTPController, agentCtrl *controllers.AgentController, adminCtrl *controllers.AdminController) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", httpCtrl.Home)

	// agent
	mux.HandleFunc("POST /api/register", agentCtrl.Register)
	mux.HandleFunc("GET /api/check_commands/{domain}/{client_id}", agentCtrl.CheckCommands)
	mux.HandleFunc("POST /api/send_result", agentCtrl.SendResult)

	// admin
	mux.HandleFunc("GET /api/admin/clients/{domain}", adminCtrl.Clients)
	mux.HandleFunc("POST /api/admin/send_command", adminCtrl.SendCommand)
	mux.HandleFunc("GET /api/admin/get_results/{domain}/{client_id}", adminCtrl.GetResults)

	return mux
}
