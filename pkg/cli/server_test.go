package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/vinecop/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, strict bool) *httptest.Server {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, data.Init(dsn))
	db, err := data.GetDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewServer(makeRouter(strict, db))
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func testModelJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(testModel(t))
	require.NoError(t, err)
	return string(b)
}

func TestServer_Families(t *testing.T) {
	ts := setupTestServer(t, false)

	status, body := doRequest(t, http.MethodGet, ts.URL+"/api/families", "")
	require.Equal(t, http.StatusOK, status)

	var list []familyView
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Len(t, list, len(listFamilies()))
}

func TestServer_Bicop(t *testing.T) {
	ts := setupTestServer(t, false)

	status, body := doRequest(t, http.MethodPost, ts.URL+"/api/bicop",
		`{"family":"gumbel","rotation":90,"parameters":[2]}`)
	require.Equal(t, http.StatusOK, status, body)

	var v bicopView
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	assert.Equal(t, "gumbel", v.Family)
	require.NotNil(t, v.Tau)
	assert.InDelta(t, -0.5, *v.Tau, 1e-12)

	status, body = doRequest(t, http.MethodPost, ts.URL+"/api/bicop",
		`{"family":"gumbel","rotation":90,"parameters":[0.5]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "error")

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/bicop", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_Validate(t *testing.T) {
	ts := setupTestServer(t, false)

	status, body := doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate", testModelJSON(t))
	require.Equal(t, http.StatusOK, status, body)
	var s modelSummary
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	assert.Equal(t, 4, s.Dim)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate?strict=true", testModelJSON(t))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate",
		`{"structure":[[1,2],[2,0]],"pair_copulas":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate", "structure: [[1, 2")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_ValidateStrictDefault(t *testing.T) {
	ts := setupTestServer(t, true)

	status, _ := doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate", testModelJSON(t))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/vinecop/validate?strict=false", testModelJSON(t))
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_Models(t *testing.T) {
	ts := setupTestServer(t, false)

	status, _ := doRequest(t, http.MethodPost, ts.URL+"/api/models", testModelJSON(t))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, ts.URL+"/api/models?name=empty", "{}")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doRequest(t, http.MethodPost, ts.URL+"/api/models?name=scenario&source=api", testModelJSON(t))
	require.Equal(t, http.StatusCreated, status, body)
	var rec data.ModelRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	assert.Equal(t, "scenario", rec.Name)
	assert.Equal(t, "api", rec.Source)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/models", "")
	require.Equal(t, http.StatusOK, status)
	var list []data.ModelRecord
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/models/"+rec.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"structure"`)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/api/models/state", "")
	require.Equal(t, http.StatusOK, status)
	var state map[string]int64
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, int64(1), state["model"])

	status, _ = doRequest(t, http.MethodDelete, ts.URL+"/api/models/"+rec.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, http.MethodGet, ts.URL+"/api/models/"+rec.ID, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, http.MethodDelete, ts.URL+"/api/models/"+rec.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(data.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
