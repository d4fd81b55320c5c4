// Package server exposes the parameter validator and the baseline/reform
// summary producer over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/capcost/internal/assets"
	"github.com/iwvelando/capcost/internal/engine"
	"github.com/iwvelando/capcost/internal/params"
	"github.com/iwvelando/capcost/pkg/constants"
	"github.com/iwvelando/capcost/pkg/output"
	"github.com/iwvelando/capcost/pkg/validation"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Parameter revision validation endpoint
	mux.HandleFunc("/api/validate", h.handleValidate)

	// Baseline/reform summary endpoint
	mux.HandleFunc("/api/summary", h.handleSummary)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type validateRequest struct {
	Year     int                    `json:"year"`
	Revision map[string]interface{} `json:"revision"`
}

type validateResponse struct {
	RequestID string              `json:"requestId"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Warnings  map[string][]string `json:"warnings,omitempty"`
	Valid     bool                `json:"valid"`
}

type summaryRequest struct {
	Year     int                    `json:"year"`
	Variable string                 `json:"variable"`
	Axis     string                 `json:"axis,omitempty"`
	Baseline map[string]interface{} `json:"baseline,omitempty"`
	Reform   map[string]interface{} `json:"reform"`
	Options  summaryOptions         `json:"options"`
}

type summaryOptions struct {
	IncludeLand        bool `json:"includeLand"`
	IncludeInventories bool `json:"includeInventories"`
}

type summaryResponse struct {
	RequestID string          `json:"requestId"`
	Summary   *engine.Summary `json:"summary"`
	CSV       string          `json:"csv"`
	Duration  string          `json:"duration"`
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	var payload validateRequest
	if err := h.decodeBody(w, r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, requestID,
			fmt.Sprintf("failed to decode request: %v", err), "server.handleValidate")
		return
	}
	if payload.Year == 0 {
		payload.Year = constants.StartYear
	}

	re, err := params.RevisionWarningsErrors(payload.Year, payload.Revision)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, requestID, err.Error(), "server.handleValidate")
		return
	}

	resp := validateResponse{
		RequestID: requestID,
		Errors:    re.Errors,
		Warnings:  re.Warnings,
		Valid:     len(re.Errors) == 0,
	}
	h.logger.Info("revision validated",
		zap.String("op", "server.handleValidate"),
		zap.String("requestId", requestID),
		zap.Int("errors", len(re.Errors)),
		zap.Int("warnings", len(re.Warnings)),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	requestID := uuid.NewString()

	var payload summaryRequest
	if err := h.decodeBody(w, r, &payload); err != nil {
		h.respondError(w, http.StatusBadRequest, requestID,
			fmt.Sprintf("failed to decode request: %v", err), "server.handleSummary")
		return
	}
	if payload.Year == 0 {
		payload.Year = constants.StartYear
	}
	if payload.Variable == "" {
		payload.Variable = "mettr"
	}
	if err := validation.ValidateOutputVariable(payload.Variable); err != nil {
		h.respondError(w, http.StatusBadRequest, requestID, err.Error(), "server.handleSummary")
		return
	}

	summary, err := h.runSummary(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, requestID, err.Error(), "server.handleSummary")
		return
	}

	var csvBuf strings.Builder
	if err := output.CsvFormat(&csvBuf, summary); err != nil {
		h.respondError(w, http.StatusInternalServerError, requestID,
			fmt.Sprintf("failed to render csv: %v", err), "server.handleSummary")
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("summary computed",
		zap.String("op", "server.handleSummary"),
		zap.String("requestId", requestID),
		zap.String("variable", payload.Variable),
		zap.Int("year", payload.Year),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, summaryResponse{
		RequestID: requestID,
		Summary:   summary,
		CSV:       csvBuf.String(),
		Duration:  elapsed.String(),
	})
}

func (h *handler) runSummary(payload summaryRequest) (*engine.Summary, error) {
	buildCalc := func(revision map[string]interface{}) (*engine.Calculator, error) {
		spec, err := params.New(payload.Year, params.WithLogger(h.logger))
		if err != nil {
			return nil, err
		}
		if len(revision) > 0 {
			if _, err := spec.Adjust(revision, true); err != nil {
				return nil, err
			}
		}
		rules, err := params.NewDeprecRules(payload.Year, h.logger)
		if err != nil {
			return nil, err
		}
		table, err := assets.LoadSample()
		if err != nil {
			return nil, err
		}
		return engine.New(spec, rules, table, h.logger), nil
	}

	baseline, err := buildCalc(payload.Baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	reform, err := buildCalc(payload.Reform)
	if err != nil {
		return nil, fmt.Errorf("reform: %w", err)
	}

	opts := engine.GroupOptions{
		IncludeLand:        payload.Options.IncludeLand,
		IncludeInventories: payload.Options.IncludeInventories,
	}
	switch payload.Axis {
	case "", "overall":
		return baseline.SummaryTable(reform, payload.Variable, opts)
	case "asset":
		return baseline.AssetSummaryTable(reform, payload.Variable, opts)
	case "industry":
		return baseline.IndustrySummaryTable(reform, payload.Variable, opts)
	}
	return nil, fmt.Errorf("unknown summary axis %q", payload.Axis)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) error {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	err := json.NewDecoder(r.Body).Decode(into)
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("request exceeds limit of %d bytes", h.maxBodySize)
	}
	return err
}

func (h *handler) respondError(w http.ResponseWriter, status int, requestID, msg, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestId", requestID),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{
		"requestId": requestID,
		"error":     msg,
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
