package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew2loo/RethinkBI/internal/api"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/config"
	"github.com/andrew2loo/RethinkBI/internal/core/query/encoder"
	"github.com/andrew2loo/RethinkBI/internal/utils/container"
)

func newServer(t *testing.T, token string) (*httptest.Server, *container.Container) {
	t.Helper()
	ctx := context.Background()

	c, err := container.NewContainer(config.Default())
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { _ = c.Close(ctx) })

	srv := httptest.NewServer(api.NewHandler(c.Services(), token))
	t.Cleanup(srv.Close)
	return srv, c
}

func post(t *testing.T, srv *httptest.Server, op, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/"+op, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) apierr.Error {
	t.Helper()
	var e apierr.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(apierr.Validation))
	assert.Equal(t, http.StatusNotFound, api.StatusCode(apierr.NotFound))
	assert.Equal(t, http.StatusNotImplemented, api.StatusCode(apierr.Unsupported))
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(apierr.IOError))
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(apierr.Internal))
}

func TestGetSchema_Empty(t *testing.T) {
	srv, _ := newServer(t, "")

	resp := post(t, srv, "get-schema", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tables []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tables))
	assert.NotNil(t, tables)
	assert.Empty(t, tables)
}

func TestRunQuery_Paged(t *testing.T) {
	srv, c := newServer(t, "")
	_, err := c.Engine().Exec(context.Background(), "CREATE TABLE sales AS SELECT * FROM (VALUES ('EU', 10), ('US', 20)) t(region, amount)")
	require.NoError(t, err)

	resp := post(t, srv, "run-query", `{
		"spec": {"kind": "visual", "table": "sales", "select": [{"col": "region"}], "orderBy": [{"col": "region", "dir": "asc"}]},
		"options": {"columnar": false, "pageSize": 1}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var page encoder.PagedRows
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, []string{"region"}, page.Columns)
	assert.Equal(t, [][]any{{"EU"}}, page.Rows)
	assert.Equal(t, 2, page.TotalRows)
	assert.NotEmpty(t, page.NextCursor)
}

func TestRunQuery_Arrow(t *testing.T) {
	srv, _ := newServer(t, "")

	resp := post(t, srv, "run-query", `{"spec": {"kind": "sql", "sql": "SELECT 42 AS answer"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, encoder.ContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "1", resp.Header.Get("X-Row-Count"))

	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)

	reader, err := ipc.NewReader(&body)
	require.NoError(t, err)
	defer reader.Release()
	assert.Equal(t, "answer", reader.Schema().Field(0).Name)
	require.True(t, reader.Next())
	assert.Equal(t, int64(1), reader.Record().NumRows())
}

func TestErrors(t *testing.T) {
	srv, _ := newServer(t, "")

	tests := []struct {
		name   string
		op     string
		body   string
		status int
		code   apierr.Code
	}{
		{"invalid spec", "run-query", `{"spec": {"kind": "sql"}}`, http.StatusBadRequest, apierr.Validation},
		{"malformed json", "run-query", `{"spec":`, http.StatusBadRequest, apierr.Validation},
		{"unknown body field", "run-query", `{"query": {}}`, http.StatusBadRequest, apierr.Validation},
		{"missing table", "run-query", `{"spec": {"kind": "visual", "table": "nope", "select": [{"col": "x"}]}}`, http.StatusNotFound, apierr.NotFound},
		{"engine failure", "run-query", `{"spec": {"kind": "sql", "sql": "SELEC 1"}}`, http.StatusInternalServerError, apierr.Internal},
		{"async", "start-query", `{"spec": {"kind": "sql", "sql": "SELECT 1"}}`, http.StatusNotImplemented, apierr.Unsupported},
		{"cancel", "cancel-query", `{"id": "x"}`, http.StatusNotImplemented, apierr.Unsupported},
		{"excel import", "import-dataset", `{"dataset": {"kind": "excel", "path": "a.xlsx"}}`, http.StatusNotImplemented, apierr.Unsupported},
		{"missing file", "import-dataset", `{"dataset": {"kind": "csv", "path": "does-not-exist.csv"}}`, http.StatusInternalServerError, apierr.IOError},
		{"unknown connection", "delete-connection", `{"id": "nope"}`, http.StatusNotFound, apierr.NotFound},
		{"unknown operation", "drop-everything", `{}`, http.StatusNotFound, apierr.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.op, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t, "")

	resp, err := http.Get(srv.URL + "/api/get-status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
}

func TestConnections(t *testing.T) {
	srv, _ := newServer(t, "")

	resp := post(t, srv, "create-connection", `{"config": {"driver": "mysql", "name": "crm", "host": "db", "port": 3307, "password": "pw"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "crm", info["name"])
	assert.NotContains(t, info, "password")

	resp = post(t, srv, "list-connections", "")
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)

	resp = post(t, srv, "delete-connection", `{"id": "`+info["id"].(string)+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusAndCapabilities(t *testing.T) {
	srv, _ := newServer(t, "")

	resp := post(t, srv, "get-status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "duckdb", status["engineName"])
	assert.NotEmpty(t, status["version"])
	assert.Equal(t, false, status["busy"])

	resp = post(t, srv, "get-capabilities", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var caps map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&caps))
	assert.Equal(t, false, caps["start-query"]["supported"])
	assert.Equal(t, true, caps["run-query"]["supported"])
}

func TestBearerToken(t *testing.T) {
	srv, _ := newServer(t, "s3cret")

	resp := post(t, srv, "get-status", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/get-status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestNewServer_ListenAddr(t *testing.T) {
	_, err := api.NewServer(config.ServerConfig{Listen: "nonsense"}, nil)
	assert.Error(t, err)

	srv, err := api.NewServer(config.ServerConfig{Listen: "127.0.0.1:0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
}
