package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawboard/internal/config"
	"clawboard/internal/model"
	"clawboard/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0644))

	st, err := store.New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Server.StaticDir = dir
	return NewServer(cfg, st, nil), st
}

func get(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_Static(t *testing.T) {
	s, st := newTestServer(t)
	require.NoError(t, st.SaveSummary(model.Summary{UpdatedAt: "2026-01-01T00:00:00Z", RowCount: 2}))

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{name: "index", target: "/", status: http.StatusOK, body: "board"},
		{name: "spa fallback", target: "/machines/B-01", status: http.StatusOK, body: "board"},
		{name: "snapshot", target: "/data/raw/summary.json", status: http.StatusOK, body: `"row_count": 2`},
		{name: "missing asset", target: "/assets/app.js", status: http.StatusNotFound},
		{name: "traversal", target: "/../outside.txt", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Contains(t, w.Body.String(), tt.body)
			}
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_Options(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, http.MethodOptions, "/data/raw/rows.json")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = get(t, s, http.MethodPost, "/index.html")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Health(t *testing.T) {
	s, st := newTestServer(t)

	var body map[string]interface{}
	w := get(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, body["updated_at"])
	assert.Nil(t, body["master"])

	require.NoError(t, st.SaveSummary(model.Summary{UpdatedAt: "2026-01-01T00:00:00Z", RowCount: 2}))
	master := model.NewSymbolMaster(model.DefaultCategorySpecs())
	master.Dict[model.CatPrice]["A"] = "100円"
	master.Dict[model.CatPrice]["B"] = "200円"
	master.Dict[model.CatMethod]["P"] = "3本"
	master.MachinesByBooth["b-01"] = "UFO 1号機"
	require.NoError(t, st.SaveMaster(master))

	w = get(t, s, http.MethodGet, "/healthz")
	body = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2026-01-01T00:00:00Z", body["updated_at"])
	assert.Equal(t, float64(2), body["row_count"])

	stats, ok := body["master"].(map[string]interface{})
	require.True(t, ok, "unexpected master stats: %v", body["master"])
	assert.Equal(t, float64(1), stats["machines"])
	assert.Equal(t, map[string]interface{}{model.CatPrice: float64(2), model.CatMethod: float64(1)}, stats["codes"])
}
