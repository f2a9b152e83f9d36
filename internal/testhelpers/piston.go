// Package testhelpers provides an in-process Piston fake for tests.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/harrison/grader/internal/models"
)

// ExecuteFunc computes the combined output for one submission.
type ExecuteFunc func(req models.ExecutionRequest) string

// FakePiston serves /runtimes and /execute from memory and records every
// execute request in arrival order.
type FakePiston struct {
	Server   *httptest.Server
	Runtimes []models.Runtime
	Execute  ExecuteFunc

	// RuntimesStatus/ExecuteStatus force a non-200 response when set.
	RuntimesStatus int
	ExecuteStatus  int
	// ExecuteBody replaces the encoded result with a raw body when set.
	ExecuteBody string

	mu              sync.Mutex
	requests        []models.ExecutionRequest
	runtimesQueries int
}

// NewFakePiston starts a fake with a python runtime and an echo executor.
func NewFakePiston() *FakePiston {
	f := &FakePiston{
		Runtimes: []models.Runtime{
			{Language: "python", Version: "3.10.0", Aliases: []string{"py", "py3", "python3"}},
			{Language: "go", Version: "1.16.2", Aliases: []string{"golang"}},
		},
		Execute: func(req models.ExecutionRequest) string { return req.Stdin + "\n" },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/piston/runtimes", f.handleRuntimes)
	mux.HandleFunc("/api/v2/piston/execute", f.handleExecute)
	f.Server = httptest.NewServer(mux)
	return f
}

// BaseURL returns the base URL to configure a piston.Client with.
func (f *FakePiston) BaseURL() string {
	return f.Server.URL + "/api/v2/piston"
}

// Close shuts the server down.
func (f *FakePiston) Close() {
	f.Server.Close()
}

// Requests returns a copy of the recorded execute requests.
func (f *FakePiston) Requests() []models.ExecutionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExecutionRequest(nil), f.requests...)
}

// RuntimesQueries returns how many times the catalog was fetched.
func (f *FakePiston) RuntimesQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runtimesQueries
}

func (f *FakePiston) handleRuntimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f.mu.Lock()
	f.runtimesQueries++
	f.mu.Unlock()

	if f.RuntimesStatus != 0 {
		writeJSON(w, f.RuntimesStatus, map[string]string{"message": "catalog unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, f.Runtimes)
}

func (f *FakePiston) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.ExecuteStatus != 0 {
		writeJSON(w, f.ExecuteStatus, map[string]string{"message": req.Language + "-" + req.Version + " runtime is unknown"})
		return
	}
	if f.ExecuteBody != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(f.ExecuteBody))
		return
	}

	output := f.Execute(req)
	writeJSON(w, http.StatusOK, models.ExecutionResult{
		Language: req.Language,
		Version:  req.Version,
		Run: &models.RunResult{
			Stdout: output,
			Stderr: "",
			Code:   0,
			Signal: nil,
			Output: output,
		},
	})
}

// ScriptedOutputs returns an ExecuteFunc that maps "<file>|<stdin>" keys to
// outputs, falling back to def for unknown keys.
func ScriptedOutputs(outputs map[string]string, def string) ExecuteFunc {
	return func(req models.ExecutionRequest) string {
		name := ""
		if len(req.Files) > 0 {
			name = req.Files[0].Name
		}
		if out, ok := outputs[strings.Join([]string{name, req.Stdin}, "|")]; ok {
			return out
		}
		return def
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
