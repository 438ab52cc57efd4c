package core

import (
	"context"
	"testing"
)

type testProvider struct {
	key    string
	adult  bool
	closed bool
}

func (p *testProvider) Key() string  { return p.key }
func (p *testProvider) Name() string { return p.key }
func (p *testProvider) Adult() bool  { return p.adult }
func (p *testProvider) Close() error {
	p.closed = true
	return nil
}
func (p *testProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	p := &testProvider{key: "site1"}
	if err := registry.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := registry.Get("site1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != p {
		t.Error("Expected the registered provider back")
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestRegistryRegisterReplacesAndCloses(t *testing.T) {
	registry := NewRegistry()

	old := &testProvider{key: "site1"}
	if err := registry.Register(old); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	replacement := &testProvider{key: "site1"}
	if err := registry.Register(replacement); err != nil {
		t.Fatalf("Re-register failed: %v", err)
	}

	if !old.closed {
		t.Error("Expected the replaced provider to be closed")
	}

	got, err := registry.Get("site1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != replacement {
		t.Error("Expected the replacement provider")
	}
}

func TestRegistryAvailableFiltersAdult(t *testing.T) {
	registry := NewRegistry()

	for _, p := range []*testProvider{
		{key: "zsite"},
		{key: "asite"},
		{key: "xxx", adult: true},
	} {
		if err := registry.Register(p); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	filtered := registry.Available(false)
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 non-adult providers, got %d", len(filtered))
	}
	// Sorted by key
	if filtered[0].Key() != "asite" || filtered[1].Key() != "zsite" {
		t.Errorf("Expected sorted keys [asite zsite], got [%s %s]", filtered[0].Key(), filtered[1].Key())
	}

	all := registry.Available(true)
	if len(all) != 3 {
		t.Errorf("Expected 3 providers with adult included, got %d", len(all))
	}
}

func TestRegistryRemoveAndClose(t *testing.T) {
	registry := NewRegistry()

	p1 := &testProvider{key: "site1"}
	p2 := &testProvider{key: "site2"}
	for _, p := range []*testProvider{p1, p2} {
		if err := registry.Register(p); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if err := registry.Remove("site1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !p1.closed {
		t.Error("Expected removed provider to be closed")
	}
	if err := registry.Remove("site1"); err == nil {
		t.Error("Expected error removing unknown provider")
	}

	if err := registry.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !p2.closed {
		t.Error("Expected remaining provider to be closed")
	}
	if len(registry.ListKeys()) != 0 {
		t.Error("Expected empty registry after Close")
	}
}
