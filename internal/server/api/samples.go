package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/trainset"
)

// SamplesHandler serves the recorded training samples.
//
//	GET    /api/samples[?label=HANDS_UP&session=ID]  training file export
//	GET    /api/samples/summary                      per-label statistics
//	DELETE /api/samples/{id}
type SamplesHandler struct {
	store *store.Store
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/samples")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" && r.Method == http.MethodGet:
		h.export(w, r)
	case path == "summary" && r.Method == http.MethodGet:
		h.summary(w, r)
	case path != "" && path != "summary" && r.Method == http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type summaryResponse struct {
	Total  int              `json:"total"`
	Labels []labelStatistic `json:"labels"`
}

type labelStatistic struct {
	Gesture string    `json:"gesture"`
	Count   int       `json:"count"`
	Mean    []float64 `json:"mean"`
	StdDev  []float64 `json:"stddev"`
}

func (h *SamplesHandler) filter(r *http.Request) (store.SampleFilter, error) {
	f := store.SampleFilter{SessionID: r.URL.Query().Get("session")}
	if name := r.URL.Query().Get("label"); name != "" {
		label, err := gesture.ParseLabel(name)
		if err != nil {
			return f, err
		}
		f.Label = label
	}
	return f, nil
}

// export writes the selected samples in training file format.
func (h *SamplesHandler) export(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown gesture")
		return
	}

	samples, err := h.store.Samples().List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="samples.txt"`)
	w.WriteHeader(http.StatusOK)
	for _, s := range samples {
		if err := trainset.WriteSample(w, s.Label, s.Features); err != nil {
			return
		}
	}
}

// summary handles GET /api/samples/summary with per-label statistics.
func (h *SamplesHandler) summary(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown gesture")
		return
	}

	samples, err := h.store.Samples().List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	set := make([]trainset.Sample, len(samples))
	for i, s := range samples {
		set[i] = trainset.Sample{Label: s.Label, Features: s.Features}
	}
	sum := trainset.Summarize(set)

	response := summaryResponse{
		Total:  sum.Total,
		Labels: make([]labelStatistic, 0, len(sum.Labels)),
	}
	for _, l := range sum.Labels {
		response.Labels = append(response.Labels, labelStatistic{
			Gesture: l.Label.Name(),
			Count:   l.Count,
			Mean:    l.Mean,
			StdDev:  l.StdDev,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SamplesHandler) delete(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid sample id %q", rawID))
		return
	}

	if err := h.store.Samples().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sample not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete sample")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
