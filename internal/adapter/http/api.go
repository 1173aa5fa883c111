package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/evapower-etl/internal/domain"
)

const (
	maxBodyBytes        = 4 << 20
	defaultRankingLimit = 10
)

// Rankings returns persisted assessments, best first.
type Rankings interface {
	Top(ctx context.Context, n int) ([]domain.SiteAssessment, error)
}

// API serves the /v1 model endpoints.
type API struct {
	estimator  *domain.ClimateEstimator
	assessor   *domain.Assessor
	rankings   Rankings
	efficiency float64
	logger     *slog.Logger
}

// NewAPI creates the model API. rankings may be nil when no store is configured.
func NewAPI(estimator *domain.ClimateEstimator, assessor *domain.Assessor, rankings Rankings, efficiency float64, logger *slog.Logger) *API {
	if efficiency <= 0 {
		efficiency = domain.DefaultEfficiency
	}
	return &API{
		estimator:  estimator,
		assessor:   assessor,
		rankings:   rankings,
		efficiency: efficiency,
		logger:     logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/climate", a.handleClimate)
	mux.HandleFunc("GET /v1/assess", a.handleAssess)
	mux.HandleFunc("POST /v1/analyze", a.handleAnalyze)
	mux.HandleFunc("GET /v1/category", a.handleCategory)
	mux.HandleFunc("GET /v1/area", a.handleArea)
	mux.HandleFunc("GET /v1/rankings", a.handleRankings)
}

func (a *API) handleClimate(w http.ResponseWriter, r *http.Request) {
	site, err := siteFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.estimator.Estimate(site.Lat, site.Lon))
}

func (a *API) handleAssess(w http.ResponseWriter, r *http.Request) {
	site, err := siteFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	site.Name = r.URL.Query().Get("name")
	if site.Name == "" {
		site.Name = fmt.Sprintf("%.4f,%.4f", site.Lat, site.Lon)
	}
	writeJSON(w, http.StatusOK, a.assessor.Assess(r.Context(), domain.SiteRequest{Site: site}))
}

type analyzeRequest struct {
	Days []domain.DailyWeatherRecord `json:"days"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	for _, d := range req.Days {
		if err := d.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	summary, err := domain.Analyze(req.Days)
	if errors.Is(err, domain.ErrEmptySeries) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		a.logger.Error("analyze series failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleCategory(w http.ResponseWriter, r *http.Request) {
	power, err := floatParam(r, "power")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ClassifyPower(power))
}

type areaResponse struct {
	TargetKW   float64 `json:"target_kw"`
	Density    float64 `json:"density"`
	Efficiency float64 `json:"efficiency"`
	AreaM2     float64 `json:"area_m2"`
}

func (a *API) handleArea(w http.ResponseWriter, r *http.Request) {
	target, err := floatParam(r, "target_kw")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	density, err := floatParam(r, "density")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	efficiency := a.efficiency
	if r.URL.Query().Has("efficiency") {
		if efficiency, err = floatParam(r, "efficiency"); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	area, err := domain.RequiredArea(target, density, efficiency)
	if errors.Is(err, domain.ErrInfeasibleSite) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, areaResponse{
		TargetKW:   target,
		Density:    density,
		Efficiency: efficiency,
		AreaM2:     area,
	})
}

type rankingsResponse struct {
	Sites   []domain.SiteAssessment `json:"sites"`
	Summary domain.RankingSummary   `json:"summary"`
}

func (a *API) handleRankings(w http.ResponseWriter, r *http.Request) {
	if a.rankings == nil {
		writeError(w, http.StatusNotFound, errors.New("rankings store not configured"))
		return
	}
	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	sites, err := a.rankings.Top(r.Context(), limit)
	if err != nil {
		a.logger.Error("query rankings failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("query rankings failed"))
		return
	}
	if sites == nil {
		sites = []domain.SiteAssessment{}
	}
	writeJSON(w, http.StatusOK, rankingsResponse{Sites: sites, Summary: domain.SummarizeRanking(sites)})
}

func siteFromQuery(r *http.Request) (domain.Site, error) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		return domain.Site{}, err
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		return domain.Site{}, err
	}
	site := domain.Site{Lat: lat, Lon: lon}
	if err := (domain.SiteRequest{Site: site}).Validate(); err != nil {
		return domain.Site{}, err
	}
	return site, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("query parameter %q must be a finite number, got %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
