package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func postJSON(t *testing.T, h http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleVersion(t *testing.T) {
	h := NewHandler(nil, 0, "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload["version"] != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", payload["version"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/version", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleValidate(t *testing.T) {
	h := NewHandler(nil, 0, "")

	rec := postJSON(t, h, "/api/validate", validateRequest{
		Year: 2026,
		Revision: map[string]interface{}{
			"CIT_rate": 0.28,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Valid || len(resp.Errors) != 0 {
		t.Errorf("valid revision rejected: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Error("response carries no request ID")
	}
}

func TestHandleValidateBadRevision(t *testing.T) {
	h := NewHandler(nil, 0, "")

	rec := postJSON(t, h, "/api/validate", validateRequest{
		Year: 2026,
		Revision: map[string]interface{}{
			"CIT_rate":    1.5,
			"warp_factor": 9,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Valid {
		t.Error("out-of-range revision reported valid")
	}
	if len(resp.Errors["CIT_rate"]) == 0 || len(resp.Errors["warp_factor"]) == 0 {
		t.Errorf("missing per-parameter errors: %+v", resp.Errors)
	}
}

func TestHandleValidateMalformedBody(t *testing.T) {
	h := NewHandler(nil, 0, "")
	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSummary(t *testing.T) {
	h := NewHandler(nil, 0, "")

	rec := postJSON(t, h, "/api/summary", summaryRequest{
		Year:     2026,
		Variable: "metr",
		Reform: map[string]interface{}{
			"CIT_rate": 0.28,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Summary == nil || len(resp.Summary.Rows) != 7 {
		t.Fatalf("summary rows = %+v, want 7", resp.Summary)
	}
	if resp.Summary.Rows[0].Label != "Overall Mean" {
		t.Errorf("first row = %q, want Overall Mean", resp.Summary.Rows[0].Label)
	}
	if !strings.Contains(resp.CSV, "Baseline,Reform,Change") {
		t.Errorf("csv payload missing header: %q", resp.CSV)
	}
	if resp.RequestID == "" || resp.Duration == "" {
		t.Errorf("missing request metadata: %+v", resp)
	}
}

func TestHandleSummaryRejectsUnknownVariable(t *testing.T) {
	h := NewHandler(nil, 0, "")
	rec := postJSON(t, h, "/api/summary", summaryRequest{
		Year:     2026,
		Variable: "velocity",
		Reform:   map[string]interface{}{"CIT_rate": 0.28},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSummaryRejectsUnknownAxis(t *testing.T) {
	h := NewHandler(nil, 0, "")
	rec := postJSON(t, h, "/api/summary", summaryRequest{
		Year:     2026,
		Variable: "metr",
		Axis:     "constellation",
		Reform:   map[string]interface{}{"CIT_rate": 0.28},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSummaryAssetAxis(t *testing.T) {
	h := NewHandler(nil, 0, "")
	rec := postJSON(t, h, "/api/summary", summaryRequest{
		Year:     2026,
		Variable: "mettr",
		Axis:     "asset",
		Reform:   map[string]interface{}{"CIT_rate": 0.28},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Summary.Rows) <= 7 {
		t.Errorf("asset axis rows = %d, want group breakdowns", len(resp.Summary.Rows))
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := NewHandler(nil, 16, "")
	rec := postJSON(t, h, "/api/validate", validateRequest{
		Year:     2026,
		Revision: map[string]interface{}{"CIT_rate": 0.28},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "exceeds limit") {
		t.Errorf("body = %q, want size-limit error", rec.Body.String())
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := "address: \":9090\"\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Address != ":9090" {
		t.Errorf("address = %q, want :9090", cfg.Address)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.MaxBodySize != DefaultConfig().MaxBodySize {
		t.Errorf("maxBodySize = %d, want default", cfg.MaxBodySize)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() with missing file succeeded, want error")
	}
}
