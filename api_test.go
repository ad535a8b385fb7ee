package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBackendClient_Scrape_SplitsSummaryFromCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scrape" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "https://example.com" {
			t.Errorf("Unexpected url param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"websiteSummary": {"title": "Example", "domain": "example.com"},
			"Tech": [{"title": "A", "link": "http://x", "company": "HN"}],
			"AI": []
		}`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	results, summary, err := client.Scrape(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary == nil || summary.Title != "Example" {
		t.Errorf("Expected summary with title 'Example', got %+v", summary)
	}
	if _, ok := results["websiteSummary"]; ok {
		t.Error("websiteSummary leaked into the category map")
	}
	if len(results["Tech"]) != 1 || results["Tech"][0].Title != "A" {
		t.Errorf("Unexpected Tech category: %+v", results["Tech"])
	}
}

func TestBackendClient_Scrape_BackendErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error": "target site refused the connection"}`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	_, _, err := client.Scrape(context.Background(), "https://example.com")
	if !errors.Is(err, errBackend) {
		t.Fatalf("Expected backend error, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "target site refused the connection") {
		t.Errorf("Server-supplied message missing from error: %s", got)
	}
}

func TestBackendClient_Scrape_GenericErrorWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	_, _, err := client.Scrape(context.Background(), "https://example.com")
	if !errors.Is(err, errBackend) {
		t.Fatalf("Expected backend error, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "500") {
		t.Errorf("Expected generic status message, got %s", got)
	}
}

func TestBackendClient_Scrape_EmptyResponseIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Tech": [], "AI": []}`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	_, _, err := client.Scrape(context.Background(), "https://example.com")
	if !errors.Is(err, errNoData) {
		t.Fatalf("Expected no-data condition, got %v", err)
	}
}

func TestBackendClient_Scrape_SummaryOnlyIsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"websiteSummary": {"title": "Only metadata"}}`))
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	results, summary, err := client.Scrape(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("A summary without stories still counts as data: %v", err)
	}
	if summary == nil || summary.Title != "Only metadata" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if !results.IsEmpty() {
		t.Errorf("Expected empty categories, got %+v", results)
	}
}

func TestBackendClient_Scrape_ConnectionFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before use

	client := NewBackendClient(server.URL)
	_, _, err := client.Scrape(context.Background(), "https://example.com")
	if !errors.Is(err, errNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}
}

func TestBackendClient_Health_AnyResponseIsAlive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewBackendClient(server.URL)
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("A non-2xx response still means the server is alive: %v", err)
	}
}

func TestBackendClient_Health_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewBackendClient(server.URL)
	err := client.Health(context.Background())
	if !errors.Is(err, errNetwork) {
		t.Fatalf("Expected network error from closed server, got %v", err)
	}
}

