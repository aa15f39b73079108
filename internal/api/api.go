// Package api implements the thin HTTP/OpenAPI façade named in spec.md §4.7
// and §6: a chi router mapping each endpoint directly onto an
// orchestrator.Manager call and translating its result/error variants into
// the status codes §6 specifies. This layer carries no orchestration logic
// of its own.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kentwait/epidemicsim/internal/jobspec"
	"github.com/kentwait/epidemicsim/internal/orchestrator"
	"github.com/kentwait/epidemicsim/internal/stats"
)

// NewRouter builds the complete HTTP surface described in spec.md §6.
func NewRouter(mgr *orchestrator.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/jobs", createJob(mgr))
	r.Get("/jobs", listJobs(mgr))
	r.Get("/jobs/{id}", getJob(mgr))
	r.Post("/jobs/{id}/terminate", terminateJob(mgr))
	r.Delete("/jobs/{id}", deleteJob(mgr))
	r.Get("/tasks/{id}", getTask(mgr))
	r.Get("/tasks/{id}/statistics", getTaskStatistics(mgr))
	return r
}

func createJob(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg jobspec.JobConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid job config", http.StatusBadRequest)
			return
		}
		job, err := mgr.CreateJob(r.Context(), cfg)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"job_id": job.ID.String()})
	}
}

func listJobs(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := mgr.GetAllJobs(r.Context())
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

func getJob(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		job, err := mgr.GetJob(r.Context(), id)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func terminateJob(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := mgr.TerminateJob(r.Context(), id); err != nil {
			writeOrchestratorError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func deleteJob(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := mgr.DeleteJob(r.Context(), id); err != nil {
			writeOrchestratorError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func getTask(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		task, err := mgr.GetTask(r.Context(), id)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func getTaskStatistics(mgr *orchestrator.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := mgr.GetStatistics(r.Context(), id)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}
		if rows == nil {
			http.Error(w, "statistics not yet available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		_ = stats.WriteCSV(w, rows)
	}
}

func parseID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOrchestratorError translates the orchestrator's sentinel error
// taxonomy (spec.md §7) into the status codes spec.md §6 names for each
// endpoint: 404 for NotFound, 409 for AlreadyTerminated/Admission, 500 for
// everything else.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrAlreadyTerminated), errors.Is(err, orchestrator.ErrAdmission):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
