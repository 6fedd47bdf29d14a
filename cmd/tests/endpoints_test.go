package tests

import (
	"net/http"
	"testing"
)

//
// service endpoint tests.  these run against a live instance named by
// service_test.yml or TC_ENDPOINT, and are skipped otherwise.
//

func TestVersionCheck(t *testing.T) {
	requireEndpoint(t)

	var version struct {
		Build     string `json:"build"`
		GoVersion string `json:"go_version"`
	}

	status, err := getJSON("/version", &version)
	if err != nil {
		t.Fatal(err)
	}

	if status != http.StatusOK {
		t.Fatalf("Expected %v, got %v\n", http.StatusOK, status)
	}

	if len(version.Build) == 0 {
		t.Fatalf("Expected non-zero length build string\n")
	}
}

func TestHealthCheck(t *testing.T) {
	requireEndpoint(t)

	var hc map[string]struct {
		Healthy bool   `json:"healthy"`
		Message string `json:"message"`
	}

	status, err := getJSON("/healthcheck", &hc)
	if err != nil {
		t.Fatal(err)
	}

	if status != http.StatusOK {
		t.Fatalf("Expected %v, got %v\n", http.StatusOK, status)
	}

	if hc["catalogue"].Healthy == false {
		t.Fatalf("Expected healthy catalogue, got: %s\n", hc["catalogue"].Message)
	}
}

func TestIdentify(t *testing.T) {
	requireEndpoint(t)

	var identity struct {
		Name   string `json:"name"`
		Facets int    `json:"facets"`
	}

	status, err := getJSON("/identify", &identity)
	if err != nil {
		t.Fatal(err)
	}

	if status != http.StatusOK {
		t.Fatalf("Expected %v, got %v\n", http.StatusOK, status)
	}

	if len(identity.Name) == 0 {
		t.Fatalf("Expected non-empty service name\n")
	}

	if identity.Facets != 5 {
		t.Fatalf("Expected 5 facets, got %d\n", identity.Facets)
	}
}

func TestSearchUnconstrained(t *testing.T) {
	requireEndpoint(t)

	var results struct {
		Total   int               `json:"total"`
		Labels  map[string]string `json:"labels"`
		Results struct {
			Suggested   []interface{} `json:"suggested"`
			Recommended []interface{} `json:"recommended"`
			Other       []interface{} `json:"other"`
		} `json:"results"`
	}

	status, err := getJSON("/api/search", &results)
	if err != nil {
		t.Fatal(err)
	}

	if status != http.StatusOK {
		t.Fatalf("Expected %v, got %v\n", http.StatusOK, status)
	}

	if results.Total == 0 {
		t.Fatalf("Expected non-zero result count\n")
	}

	buckets := len(results.Results.Suggested) + len(results.Results.Recommended) + len(results.Results.Other)
	if buckets != results.Total {
		t.Fatalf("Expected bucket sizes to sum to total %d, got %d\n", results.Total, buckets)
	}

	if len(results.Labels["suggested"]) == 0 {
		t.Fatalf("Expected localized bucket labels\n")
	}
}

func TestRegisterNotFound(t *testing.T) {
	requireEndpoint(t)

	status, err := getJSON("/api/registers/ZZ-NOPE", nil)
	if err != nil {
		t.Fatal(err)
	}

	if status != http.StatusNotFound {
		t.Fatalf("Expected %v, got %v\n", http.StatusNotFound, status)
	}
}

func TestRefreshRequiresAuth(t *testing.T) {
	requireEndpoint(t)

	res, err := http.Post(cfg.Endpoint+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		t.Fatalf("Expected refresh to be rejected without credentials\n")
	}
}

//
// end of file
//
