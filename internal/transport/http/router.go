package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter mounts the REST API, the live-session websocket and the health
// check behind CORS. An empty allowedOrigins list allows any origin.
func NewRouter(api *APIHandler, ws *WSHandler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api.Register(r)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	corsHeaders := handlers.AllowedHeaders([]string{"Authorization", "Content-Type"})
	corsOrigins := handlers.AllowedOrigins(allowedOrigins)
	corsMethods := handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions})
	return handlers.CORS(corsHeaders, corsOrigins, corsMethods)(r)
}
