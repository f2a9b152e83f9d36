package piston

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harrison/grader/internal/models"
	"github.com/harrison/grader/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, fake *testhelpers.FakePiston) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = fake.BaseURL()
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, "https://emkc.org/api/v2/piston/runtimes", c.RuntimesURL())
	assert.Equal(t, "https://emkc.org/api/v2/piston/execute", c.ExecuteURL())
}

func TestNewClient_CustomPaths(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://localhost:2000/api/v2/", RuntimesPath: "rt", ExecutePath: "/run"})
	assert.Equal(t, "http://localhost:2000/api/v2/rt", c.RuntimesURL())
	assert.Equal(t, "http://localhost:2000/api/v2/run", c.ExecuteURL())
}

func TestSelectRuntime(t *testing.T) {
	catalog := []models.Runtime{
		{Language: "python", Version: "2.7.18", Aliases: []string{"py2"}},
		{Language: "python", Version: "3.10.0", Aliases: []string{"py"}},
		{Language: "go", Version: "1.16.2"},
	}

	rt, ok := SelectRuntime(catalog, "python")
	require.True(t, ok)
	assert.Equal(t, "2.7.18", rt.Version, "first match wins")

	_, ok = SelectRuntime(catalog, "py")
	assert.False(t, ok, "aliases are not matched")

	_, ok = SelectRuntime(catalog, "Python")
	assert.False(t, ok, "matching is case sensitive")

	_, ok = SelectRuntime(nil, "go")
	assert.False(t, ok)
}

func TestResolveRuntime(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	client := newTestClient(t, fake)

	rt, err := client.ResolveRuntime(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, models.Runtime{Language: "go", Version: "1.16.2", Aliases: []string{"golang"}}, rt)
	assert.Equal(t, 1, fake.RuntimesQueries())
}

func TestResolveRuntime_NotFound(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	client := newTestClient(t, fake)

	_, err := client.ResolveRuntime(context.Background(), "cobol")
	var rtErr *models.RuntimeNotFoundError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, "cobol", rtErr.Language)
	assert.Nil(t, rtErr.Err)
}

func TestResolveRuntime_CatalogFailure(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	fake.RuntimesStatus = http.StatusServiceUnavailable
	client := newTestClient(t, fake)

	_, err := client.ResolveRuntime(context.Background(), "python")
	assert.True(t, models.IsRuntimeNotFoundError(err))
	assert.True(t, models.IsTransportError(err))
	assert.Contains(t, err.Error(), "catalog unavailable")
}

func TestResolveRuntime_MalformedCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.ResolveRuntime(context.Background(), "python")
	assert.True(t, models.IsRuntimeNotFoundError(err))
	assert.True(t, models.IsResponseFormatError(err))
}

func TestExecute(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	fake.Execute = func(req models.ExecutionRequest) string { return "3\n" }
	client := newTestClient(t, fake)

	rt := models.Runtime{Language: "python", Version: "3.10.0"}
	result, err := client.Execute(context.Background(), rt, "add", "print(3)", "1 2")
	require.NoError(t, err)
	assert.Equal(t, "3\n", result.Output())
	assert.Equal(t, "python", result.Language)
	assert.Nil(t, result.Run.Signal)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, models.ExecutionRequest{
		Language: "python",
		Version:  "3.10.0",
		Files:    []models.SolutionFile{{Name: "add", Content: "print(3)"}},
		Stdin:    "1 2",
	}, reqs[0])
}

func TestExecute_WireFormat(t *testing.T) {
	var got map[string]interface{}
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"language":"python","version":"3.10.0","run":{"stdout":"","stderr":"boom","code":1,"signal":"SIGKILL","output":"boom"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	result, err := client.Execute(context.Background(), models.Runtime{Language: "python", Version: "3.10.0"}, "f", "c", "in")
	require.NoError(t, err)

	assert.Equal(t, "python", got["language"])
	assert.Equal(t, "3.10.0", got["version"])
	assert.Equal(t, "in", got["stdin"])
	files, ok := got["files"].([]interface{})
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, map[string]interface{}{"name": "f", "content": "c"}, files[0])

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "secret", headers.Get("Authorization"))

	require.NotNil(t, result.Run.Signal)
	assert.Equal(t, "SIGKILL", *result.Run.Signal)
	assert.Equal(t, 1, result.Run.Code)
	assert.Equal(t, "boom", result.Output())
}

func TestExecute_StatusError(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	fake.ExecuteStatus = http.StatusBadRequest
	client := newTestClient(t, fake)

	_, err := client.Execute(context.Background(), models.Runtime{Language: "python", Version: "9"}, "add", "", "")
	var tErr *models.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.Contains(t, err.Error(), "python-9 runtime is unknown")
}

func TestExecute_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>rate limited</html>"},
		{"missing run", `{"language":"python","version":"3.10.0"}`},
		{"wrong type", `{"run":{"code":"zero"}}`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testhelpers.NewFakePiston()
			defer fake.Close()
			fake.ExecuteBody = tt.body
			client := newTestClient(t, fake)

			result, err := client.Execute(context.Background(), models.Runtime{Language: "python"}, "add", "", "")
			assert.Nil(t, result)
			assert.True(t, models.IsResponseFormatError(err), "got %v", err)
		})
	}
}

func TestExecute_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second})
	_, err := client.Execute(context.Background(), models.Runtime{Language: "python"}, "add", "", "")
	assert.True(t, models.IsTransportError(err))
}

func TestExecute_ContextCanceled(t *testing.T) {
	fake := testhelpers.NewFakePiston()
	defer fake.Close()
	client := newTestClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Execute(ctx, models.Runtime{Language: "python"}, "add", "", "")
	assert.True(t, models.IsTransportError(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Requests())
}
