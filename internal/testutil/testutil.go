// Package testutil provides shared test helpers: a scripted model
// provider and a temporary library database.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/sourcelens/sourcelens/internal/library"
	"github.com/sourcelens/sourcelens/internal/llm"
)

// FakeProvider is a scripted llm.Provider. It returns Response (or Err)
// for every call and records the requests it served.
type FakeProvider struct {
	ProviderName string
	Response     string
	Err          error

	mu       sync.Mutex
	requests []llm.Request
}

// NewFakeProvider creates a provider answering every request with response.
func NewFakeProvider(name, response string) *FakeProvider {
	return &FakeProvider{ProviderName: name, Response: response}
}

// Complete implements llm.Provider.
func (f *FakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}

// Name implements llm.Provider.
func (f *FakeProvider) Name() string {
	return f.ProviderName
}

// Calls returns how many requests the provider has served.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (f *FakeProvider) LastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return llm.Request{}
	}
	return f.requests[len(f.requests)-1]
}

// TestLibrary creates a temporary SQLite library store that is
// automatically cleaned up.
func TestLibrary(t *testing.T) *library.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sourcelens-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := library.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
