package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Router wires every endpoint. Security headers, request logging and CORS
// wrap the router itself so they also cover 404 and 405 answers.
func (a *App) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(a.Metrics)

	// Operational endpoints (no auth required)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "stockdesk api")
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/ready", a.HandleReady).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.Use(a.RateLimit)
	auth.HandleFunc("/register", a.HandleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", a.HandleLogin).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", a.HandleRefresh).Methods(http.MethodGet)
	auth.HandleFunc("/logout", a.HandleLogout).Methods(http.MethodDelete)
	auth.HandleFunc("/check-email-duplicate", a.HandleCheckEmailDuplicate).Methods(http.MethodPost)
	auth.Handle("/me", a.RequireAccess(http.HandlerFunc(a.HandleMe))).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(a.RequireAccess)

	emp := api.PathPrefix("/employee").Subrouter()
	emp.HandleFunc("", a.HandleListEmployees).Methods(http.MethodGet)
	emp.HandleFunc("/{no:[0-9]+}", a.HandleGetEmployee).Methods(http.MethodGet)
	emp.HandleFunc("/email/{email}", a.HandleGetEmployeeByEmail).Methods(http.MethodGet)
	emp.HandleFunc("/phone/{phone}", a.HandleGetEmployeeByPhone).Methods(http.MethodGet)
	emp.HandleFunc("/status/{status}", a.HandleListEmployees).Methods(http.MethodGet)
	emp.HandleFunc("/update-password/{no:[0-9]+}", a.HandleUpdateEmployeePassword).Methods(http.MethodPut)
	emp.HandleFunc("/update-employee/{no:[0-9]+}", a.HandleUpdateEmployee).Methods(http.MethodPut)
	emp.HandleFunc("/update-employee-all/{no:[0-9]+}", a.HandleUpdateEmployeeAll).Methods(http.MethodPut)
	emp.HandleFunc("/{no:[0-9]+}", a.HandleDeleteEmployee).Methods(http.MethodDelete)

	for path, kind := range map[string]LookupKind{"/rank": KindRank, "/type": KindType, "/from": KindFrom} {
		lr := api.PathPrefix(path).Subrouter()
		lr.HandleFunc("", a.HandleListLookups(kind)).Methods(http.MethodGet)
		lr.HandleFunc("", a.HandleCreateLookup(kind)).Methods(http.MethodPost)
		lr.HandleFunc("/{no:[0-9]+}", a.HandleGetLookup(kind)).Methods(http.MethodGet)
		lr.HandleFunc("/{no:[0-9]+}", a.HandleUpdateLookup(kind)).Methods(http.MethodPut)
		lr.HandleFunc("/{no:[0-9]+}", a.HandleDeleteLookup(kind)).Methods(http.MethodDelete)
	}

	cust := api.PathPrefix("/customer").Subrouter()
	cust.HandleFunc("", a.HandleListCustomers).Methods(http.MethodGet)
	cust.HandleFunc("", a.HandleCreateCustomer).Methods(http.MethodPost)
	cust.HandleFunc("/type/{no:[0-9]+}", a.HandleListCustomersByType).Methods(http.MethodGet)
	cust.HandleFunc("/{no:[0-9]+}", a.HandleGetCustomer).Methods(http.MethodGet)
	cust.HandleFunc("/update-customer/{no:[0-9]+}", a.HandleUpdateCustomer).Methods(http.MethodPut)
	cust.HandleFunc("/{no:[0-9]+}", a.HandleDeleteCustomer).Methods(http.MethodDelete)

	stock := api.PathPrefix("/stock").Subrouter()
	stock.HandleFunc("", a.HandleListStocks).Methods(http.MethodGet)
	stock.HandleFunc("", a.HandleCreateStock).Methods(http.MethodPost)
	stock.HandleFunc("/{no:[0-9]+}", a.HandleGetStock).Methods(http.MethodGet)
	stock.HandleFunc("/update-stock/{no:[0-9]+}", a.HandleUpdateStock).Methods(http.MethodPut)
	stock.HandleFunc("/update-close-price/{name}", a.HandleUpdateClosePrice).Methods(http.MethodPut)
	stock.HandleFunc("/{no:[0-9]+}", a.HandleDeleteStock).Methods(http.MethodDelete)

	// Close-price feed jobs
	stock.HandleFunc("/close-price/run", a.HandleRunClosePrice).Methods(http.MethodPost)
	stock.HandleFunc("/close-price/jobs/{id}", a.HandleGetJob).Methods(http.MethodGet)
	stock.HandleFunc("/close-price/jobs/{id}", a.HandleCancelJob).Methods(http.MethodDelete)

	lg := api.PathPrefix("/log").Subrouter()
	lg.HandleFunc("", a.HandleListLogs).Methods(http.MethodGet)
	lg.HandleFunc("", a.HandleAddLog).Methods(http.MethodPost)
	lg.HandleFunc("/{no:[0-9]+}", a.HandleGetLog).Methods(http.MethodGet)
	lg.HandleFunc("/type/{type}", a.HandleListLogs).Methods(http.MethodGet)

	return a.CORS(SecurityHeaders(a.Logging(r)))
}

func (a *App) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.Ping(r.Context()); err != nil {
		a.log.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
