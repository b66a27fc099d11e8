/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package testutil

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockHTTPServer serves canned registry responses and jar downloads.
// Paths without a registered body answer 404.
type MockHTTPServer struct {
	Server *httptest.Server

	mu sync.Mutex

	// Track requested paths
	Requests []string

	Bodies  map[string][]byte
	Headers map[string]http.Header
}

// NewMockHTTPServer creates a new mock HTTP server.
func NewMockHTTPServer() *MockHTTPServer {
	mock := &MockHTTPServer{
		Requests: make([]string, 0),
		Bodies:   make(map[string][]byte),
		Headers:  make(map[string]http.Header),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

func (m *MockHTTPServer) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	m.Requests = append(m.Requests, path)
	m.Headers[path] = r.Header.Clone()

	data, ok := m.Bodies[path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AddFile serves data at path. Paths may carry a query string.
func (m *MockHTTPServer) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Bodies[path] = data
}

// AddJSON serves v encoded as JSON at path.
func (m *MockHTTPServer) AddJSON(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic("AddJSON: " + err.Error())
	}

	m.AddFile(path, data)
}

// GetRequests returns a copy of recorded request paths.
func (m *MockHTTPServer) GetRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make([]string, len(m.Requests))
	copy(requests, m.Requests)
	return requests
}

// HeaderFor returns the headers of the last request to path.
func (m *MockHTTPServer) HeaderFor(path string) http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Headers[path]
}

// Close shuts down the mock server.
func (m *MockHTTPServer) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockHTTPServer) URL() string {
	return m.Server.URL
}

// ComputeSHA256 computes the SHA256 hash of data.
func ComputeSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
