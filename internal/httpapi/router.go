package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every API route. main() wraps the result with the
// middleware chain.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	sh := SearchHandler{Hub: d.Hub, RunSearch: d.RunSearch}
	r.HandleFunc("/api/search", sh.Search).Methods(http.MethodPost)

	fh := FavoritesHandler{DB: d.DB, Hub: d.Hub}
	r.HandleFunc("/api/favorites", fh.List).Methods(http.MethodGet)
	r.HandleFunc("/api/favorites", fh.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/favorites/{id}", fh.Delete).Methods(http.MethodDelete)

	ah := AlertsHandler{DB: d.DB, Hub: d.Hub, Mailer: d.Mailer}
	r.HandleFunc("/api/alerts", ah.List).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts", ah.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/alerts/{id}", ah.Delete).Methods(http.MethodDelete)

	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	r.HandleFunc("/api/config", ch.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/config", ch.Put).Methods(http.MethodPut)
	r.HandleFunc("/api/config/path", ch.Path).Methods(http.MethodGet)

	dh := DiagnosticsHandler{DB: d.DB, CfgVal: d.CfgVal, Fetcher: d.Fetcher, Portals: d.Portals, HasProxyKey: d.HasProxyKey}
	r.HandleFunc("/api/diagnostics", dh.Diagnostics).Methods(http.MethodGet)

	eh := EventsHandler{Hub: d.Hub}
	r.HandleFunc("/events", eh.ServeSSE).Methods(http.MethodGet)

	hh := HealthHandler{}
	r.HandleFunc("/health", hh.Health).Methods(http.MethodGet)

	return r
}
