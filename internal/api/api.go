// Package api exposes the service over HTTP. Long-running portal work is
// queued and acknowledged with a job id; pure reads run synchronously.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mebbisauto/internal/jobs"
	"mebbisauto/internal/logger"
	"mebbisauto/internal/store"
	"mebbisauto/internal/workflow"
)

// Screenshotter captures the session's current page, for operator
// diagnostics.
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) error
}

// Server wires the HTTP handlers to the runner and the synchronous
// services.
type Server struct {
	runner  *jobs.Runner
	store   *store.Store
	sync    *workflow.StudentSyncService
	invoice *workflow.InvoiceService
	bep     *workflow.BepService
	shooter Screenshotter
	log     logger.Logger
}

// NewServer builds the HTTP server.
func NewServer(
	runner *jobs.Runner,
	st *store.Store,
	syncSvc *workflow.StudentSyncService,
	invoiceSvc *workflow.InvoiceService,
	bepSvc *workflow.BepService,
	shooter Screenshotter,
	l logger.Logger,
) *Server {
	if l == nil {
		l = logger.NewNop()
	}
	return &Server{
		runner:  runner,
		store:   st,
		sync:    syncSvc,
		invoice: invoiceSvc,
		bep:     bepSvc,
		shooter: shooter,
		log:     l,
	}
}

// Router builds the route table. CORS wraps the whole router because mux
// middleware only runs on matched routes and OPTIONS preflights match none.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/education/submit", s.handleEducationSubmit).Methods(http.MethodPost)

	api.HandleFunc("/sync/students", s.handleStudentSync).Methods(http.MethodPost)
	api.HandleFunc("/sync/students/{tcKimlikNo}", s.handleStudentDetail).Methods(http.MethodGet)

	api.HandleFunc("/invoices/candidates", s.handleInvoiceCandidates).Methods(http.MethodGet)
	api.HandleFunc("/invoices", s.handleInvoiceList).Methods(http.MethodGet)
	api.HandleFunc("/invoices/create", s.handleInvoiceCreate).Methods(http.MethodPost)
	api.HandleFunc("/invoices/approve", s.handleInvoiceApprove).Methods(http.MethodPost)
	api.HandleFunc("/invoices/reject", s.handleInvoiceReject).Methods(http.MethodPost)

	api.HandleFunc("/bep/students", s.handleBepStudents).Methods(http.MethodGet)
	api.HandleFunc("/bep/submit", s.handleBepSubmit).Methods(http.MethodPost)

	api.HandleFunc("/status/{jobId}", s.handleJobStatus).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.handleRecentJobs).Methods(http.MethodGet)

	api.HandleFunc("/debug/screenshot", s.handleScreenshot).Methods(http.MethodPost)

	return corsMiddleware(r)
}

// envelope is the JSON shape of every response.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.log.Error("yanıt yazılamadı", "error", err)
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.respond(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) accepted(w http.ResponseWriter, jobID string) {
	s.respond(w, http.StatusAccepted, envelope{
		Success: true,
		Message: "İş kuyruğa alındı",
		Data:    map[string]string{"jobId": jobID},
	})
}

func (s *Server) fail(w http.ResponseWriter, status int, message string, errs ...string) {
	s.respond(w, status, envelope{Success: false, Message: message, Errors: errs})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.fail(w, http.StatusBadRequest, "Geçersiz istek gövdesi", err.Error())
		return false
	}
	return true
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("http isteği",
			"method", r.Method,
			"path", r.URL.Path,
			"durationMs", float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
