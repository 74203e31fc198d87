// Package httpapi exposes the analysis service over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/matrizrfm/rfm-engine/internal/app"
	"github.com/matrizrfm/rfm-engine/internal/app/metrics"
	analysissvc "github.com/matrizrfm/rfm-engine/internal/app/services/analysis"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

// maxUploadBytes caps the accepted CSV payload.
const maxUploadBytes = 64 << 20

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyses", h.createAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/analyses", h.listAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", h.getAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", h.deleteAnalysis).Methods(http.MethodDelete)
	api.HandleFunc("/analyses/{id}/segments", h.listSegments).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/customers", h.listCustomers).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/customers/{customerID}", h.getCustomer).Methods(http.MethodGet)

	return metrics.InstrumentHandler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createAnalysis accepts a multipart CSV upload and schedules a background
// segmentation run. The response carries the pending analysis record.
func (h *handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field is required: %w", err))
		return
	}
	defer file.Close()

	table, err := rfm.ReadCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read csv: %w", err))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	var reference time.Time
	if raw := r.FormValue("reference_date"); raw != "" {
		reference, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("reference_date must be YYYY-MM-DD"))
			return
		}
	}

	created, err := h.app.Analyses.Submit(r.Context(), analysissvc.Request{
		Owner:         r.FormValue("owner"),
		Name:          name,
		Table:         table,
		ReferenceDate: reference,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, created)
}

func (h *handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.app.Analyses.List(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.app.Analyses.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Analyses.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.app.Analyses.Segments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, segments)
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	records, err := h.app.Analyses.Records(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := h.app.Analyses.Customer(r.Context(), vars["id"], vars["customerID"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// statusFor maps engine error classes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rfm.ErrDataQuality):
		return http.StatusBadRequest
	case errors.Is(err, rfm.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, rfm.ErrCustomerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusNotFound
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
