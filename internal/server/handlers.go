package server

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	load pipeline.Loader
}

// NewHandler creates a new handler
func NewHandler(load pipeline.Loader) *Handler {
	return &Handler{load: load}
}

// dataset loads a fresh dataset, answering 502 itself on failure.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) (*pipeline.Dataset, bool) {
	ds, err := h.load(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to load the session feed", err)
		return nil, false
	}
	return ds, true
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "towerstats",
	})
}

// GetDashboard returns every table at once.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, BuildDashboard(ds))
}

// GetSummary returns the headline numbers.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, aggregator.Summary(ds.Sessions, ds.Elo))
}

// GetGroups returns the group ids, sorted.
func (h *Handler) GetGroups(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(aggregator.Groups(ds.Sessions)))
}

// GetRanking returns the ranking of ?group=, or the global one.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, r.URL.Query().Get("group"))
}

// GetGroupRanking returns one group's ranking.
func (h *Handler) GetGroupRanking(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, mux.Vars(r)["group"])
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request, group string) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"group":   group,
		"ranking": nonNil(aggregator.Ranking(ds.Sessions, group)),
	})
}

// GetWinRates returns the win-percentage ranking.
func (h *Handler) GetWinRates(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(aggregator.WinPercentage(ds.Sessions)))
}

// GetElo returns the ELO ranking.
func (h *Handler) GetElo(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(aggregator.Elo(ds.Sessions, ds.Elo)))
}

// GetKills returns kill stats, matrix and sources.
func (h *Handler) GetKills(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, BuildKills(ds.Sessions))
}

// GetSessions returns the reconciled sessions, newest first, filtered by
// ?date=YYYY-MM-DD and ?group=.
func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := aggregator.Filter{Date: q.Get("date"), Group: q.Get("group")}
	if f.Date != "" {
		if _, _, hasHour, ok := model.Timestamp(f.Date).Parse(); !ok || hasHour {
			respondError(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil)
			return
		}
	}
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(aggregator.Select(ds.Sessions, f)))
}

// GetPlayerTrend returns one player's history, oldest first. Names are
// matched case-insensitively.
func (h *Handler) GetPlayerTrend(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	for _, p := range aggregator.Players(ds.Sessions) {
		if strings.EqualFold(p, name) {
			respondJSON(w, http.StatusOK, map[string]any{
				"player": p,
				"trend":  nonNil(aggregator.PlayerTrend(ds.Sessions, p)),
			})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Player not found", nil)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
