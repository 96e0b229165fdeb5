// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// --- doctypeFor ---

func TestDoctypeFor(t *testing.T) {
	tests := []struct {
		name         string
		workType     string
		crossrefType string
		want         string
	}{
		{"plain article", "article", "journal-article", "article"},
		{"conference via crossref genre", "article", "proceedings-article", "conference"},
		{"preprint", "preprint", "posted-content", "preprint"},
		{"review passes through", "review", "journal-article", "review"},
		{"empty defaults to article", "", "", "article"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doctypeFor(tt.workType, tt.crossrefType)
			if got != tt.want {
				t.Errorf("doctypeFor(%q, %q) = %q, want %q", tt.workType, tt.crossrefType, got, tt.want)
			}
		})
	}
}

// --- Mock OpenAlex server ---

const sampleWorksJSON = `{
  "meta": {"count": 2, "per_page": 50, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_year": 2017,
      "type": "article",
      "type_crossref": "proceedings-article",
      "cited_by_count": 95210,
      "concepts": [
        {"id": "https://openalex.org/C41008148", "display_name": "Computer science", "level": 0, "score": 0.92},
        {"id": "https://openalex.org/C119857082", "display_name": "Machine learning", "level": 1, "score": 0.78}
      ]
    },
    {
      "id": "https://openalex.org/W3210812345",
      "doi": "",
      "publication_year": 2018,
      "type": "preprint",
      "type_crossref": "posted-content",
      "cited_by_count": 41033,
      "concepts": [
        {"id": "https://openalex.org/C41008148", "display_name": "Computer science", "level": 0, "score": 0.88},
        {"id": "", "display_name": "Nameless", "level": 1, "score": 0.5}
      ]
    }
  ]
}`

func worksTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

// --- Fetcher.Fetch ---

func TestFetchBuildsSeed(t *testing.T) {
	ts := worksTestServer(http.StatusOK, sampleWorksJSON)
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}
	seed, err := f.Fetch(context.Background(), Request{Query: "attention"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(seed.Papers) != 2 {
		t.Fatalf("len(seed.Papers) = %d, want 2", len(seed.Papers))
	}

	p0 := seed.Papers[0]
	if p0.ID != "W2741809807" {
		t.Errorf("ID = %q, want work id without the openalex.org prefix", p0.ID)
	}
	// DOI should be stripped of https://doi.org/ prefix.
	if p0.DOI != "10.5555/3295222.3295349" {
		t.Errorf("DOI = %q, want DOI without prefix", p0.DOI)
	}
	if p0.Year != 2017 {
		t.Errorf("Year = %d, want 2017", p0.Year)
	}
	// Crossref genre proceedings-article maps to the conference doctype.
	if p0.Doctype != "conference" {
		t.Errorf("Doctype = %q, want %q", p0.Doctype, "conference")
	}
	if p0.CitedByCount != 95210 {
		t.Errorf("CitedByCount = %d, want 95210", p0.CitedByCount)
	}
	if len(p0.Fields) != 2 || p0.Fields[0].ID != "C41008148" || p0.Fields[0].Score != 0.92 {
		t.Errorf("Fields = %+v, want scored links to C41008148 and C119857082", p0.Fields)
	}

	p1 := seed.Papers[1]
	if p1.DOI != "" {
		t.Errorf("DOI = %q, want empty", p1.DOI)
	}
	if p1.Doctype != "preprint" {
		t.Errorf("Doctype = %q, want %q", p1.Doctype, "preprint")
	}
	// The concept without an id is dropped.
	if len(p1.Fields) != 1 {
		t.Errorf("Fields = %+v, want only the named concept", p1.Fields)
	}
}

func TestFetchDeduplicatesFieldDictionary(t *testing.T) {
	ts := worksTestServer(http.StatusOK, sampleWorksJSON)
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}
	seed, err := f.Fetch(context.Background(), Request{Query: "attention"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Computer science appears in both works but the dictionary holds it
	// once, sorted by id.
	if len(seed.Fields) != 2 {
		t.Fatalf("len(seed.Fields) = %d, want 2", len(seed.Fields))
	}
	if seed.Fields[0].ID != "C119857082" || seed.Fields[1].ID != "C41008148" {
		t.Errorf("Fields = %+v, want ids in sorted order", seed.Fields)
	}
	if seed.Fields[1].DisplayName != "Computer science" || seed.Fields[1].Level != 0 {
		t.Errorf("Fields[1] = %+v, want Computer science at level 0", seed.Fields[1])
	}
	if seed.Fields[0].DisplayName != "Machine learning" || seed.Fields[0].Level != 1 {
		t.Errorf("Fields[0] = %+v, want Machine learning at level 1", seed.Fields[0])
	}
}

// --- Request parameters ---

func TestFetchRequestParameters(t *testing.T) {
	var received map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"meta":{"count":0,"per_page":50,"page":1},"results":[]}`)
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}
	req := Request{Query: "graph neural networks", MaxWorks: 50}
	if _, err := f.Fetch(context.Background(), req, &bytes.Buffer{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got := received["search"]; len(got) != 1 || got[0] != "graph neural networks" {
		t.Errorf("search = %v, want the query text", got)
	}
	if got := received["per_page"]; len(got) != 1 || got[0] != "50" {
		t.Errorf("per_page = %v, want 50", got)
	}
	if got := received["page"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("page = %v, want 1", got)
	}
	if got := received["select"]; len(got) != 1 || !strings.Contains(got[0], "concepts") {
		t.Errorf("select = %v, should name the concepts field", got)
	}
}

func TestFetchYearFilter(t *testing.T) {
	var receivedFilter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedFilter = r.URL.Query().Get("filter")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"meta":{"count":0,"per_page":50,"page":1},"results":[]}`)
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}

	// Both bounds set.
	req := Request{Query: "test", Years: types.YearRange{From: 2020, To: 2024}}
	if _, err := f.Fetch(context.Background(), req, &bytes.Buffer{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(receivedFilter, "from_publication_date:2020-01-01") {
		t.Errorf("filter = %q, should contain from_publication_date:2020-01-01", receivedFilter)
	}
	if !strings.Contains(receivedFilter, "to_publication_date:2024-12-31") {
		t.Errorf("filter = %q, should contain to_publication_date:2024-12-31", receivedFilter)
	}

	// Only the lower bound.
	req = Request{Query: "test", Years: types.YearRange{From: 2021}}
	_, _ = f.Fetch(context.Background(), req, &bytes.Buffer{})
	if !strings.Contains(receivedFilter, "from_publication_date:2021-01-01") {
		t.Errorf("filter = %q, should contain from_publication_date:2021-01-01", receivedFilter)
	}
	if strings.Contains(receivedFilter, "to_publication_date") {
		t.Errorf("filter = %q, should not contain to_publication_date", receivedFilter)
	}

	// No bounds, no filter param.
	req = Request{Query: "test"}
	_, _ = f.Fetch(context.Background(), req, &bytes.Buffer{})
	if receivedFilter != "" {
		t.Errorf("filter = %q, should be empty when no years set", receivedFilter)
	}
}

func TestFetchEmailParameter(t *testing.T) {
	var receivedMailto string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMailto = r.URL.Query().Get("mailto")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"meta":{"count":0,"per_page":50,"page":1},"results":[]}`)
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	// With email.
	f := &Fetcher{Client: ts.Client(), Email: "curator@example.com"}
	_, _ = f.Fetch(context.Background(), Request{Query: "test"}, &bytes.Buffer{})
	if receivedMailto != "curator@example.com" {
		t.Errorf("mailto = %q, want %q", receivedMailto, "curator@example.com")
	}

	// Without email.
	f = &Fetcher{Client: ts.Client()}
	_, _ = f.Fetch(context.Background(), Request{Query: "test"}, &bytes.Buffer{})
	if receivedMailto != "" {
		t.Errorf("mailto = %q, should be empty when no email set", receivedMailto)
	}
}

// --- Pagination ---

func TestFetchPaginatesUntilMax(t *testing.T) {
	// Page 1 holds a work without a year, so a full page still leaves the
	// fetch short and page 2 must top it up.
	pageBodies := map[string]string{
		"1": `{
			"meta": {"count": 4, "per_page": 2, "page": 1},
			"results": [
				{"id": "https://openalex.org/W1", "publication_year": 2020, "type": "article", "concepts": []},
				{"id": "https://openalex.org/W2", "publication_year": 0, "type": "article", "concepts": []}
			]
		}`,
		"2": `{
			"meta": {"count": 4, "per_page": 2, "page": 2},
			"results": [
				{"id": "https://openalex.org/W3", "publication_year": 2021, "type": "article", "concepts": []},
				{"id": "https://openalex.org/W4", "publication_year": 2022, "type": "article", "concepts": []}
			]
		}`,
	}
	var pagesServed []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pageBodies[page])
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	var progress bytes.Buffer
	f := &Fetcher{Client: ts.Client()}
	seed, err := f.Fetch(context.Background(), Request{Query: "test", MaxWorks: 2}, &progress)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(pagesServed) != 2 || pagesServed[0] != "1" || pagesServed[1] != "2" {
		t.Errorf("pages served = %v, want [1 2]", pagesServed)
	}
	if len(seed.Papers) != 2 {
		t.Fatalf("len(seed.Papers) = %d, want 2", len(seed.Papers))
	}
	if seed.Papers[0].ID != "W1" || seed.Papers[1].ID != "W3" {
		t.Errorf("papers = %+v, want W1 then W3", seed.Papers)
	}
	if !strings.Contains(progress.String(), "skipped W2: no publication year") {
		t.Errorf("progress = %q, should report the skipped work", progress.String())
	}
}

func TestFetchStopsOnShortPage(t *testing.T) {
	var pagesServed int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"meta": {"count": 1, "per_page": 5, "page": 1},
			"results": [
				{"id": "https://openalex.org/W1", "publication_year": 2020, "type": "article", "concepts": []}
			]
		}`)
	}))
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}
	seed, err := f.Fetch(context.Background(), Request{Query: "test", MaxWorks: 5}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pagesServed != 1 {
		t.Errorf("pages served = %d, want 1 (short page ends the fetch)", pagesServed)
	}
	if len(seed.Papers) != 1 {
		t.Errorf("len(seed.Papers) = %d, want 1", len(seed.Papers))
	}
}

// --- Empty query ---

func TestFetchEmptyQuery(t *testing.T) {
	f := &Fetcher{Client: &http.Client{}}
	_, err := f.Fetch(context.Background(), Request{Query: "   "}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty query error, got: %v", err)
	}
}

// --- Error cases ---

func TestFetchHTTPNon200(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantSubstr string
	}{
		{"server error", http.StatusInternalServerError, "HTTP 500"},
		{"forbidden", http.StatusForbidden, "HTTP 403"},
		{"rate limited", http.StatusTooManyRequests, "HTTP 429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := worksTestServer(tt.statusCode, "")
			defer ts.Close()

			old := openAlexWorksBase
			openAlexWorksBase = ts.URL
			defer func() { openAlexWorksBase = old }()

			f := &Fetcher{Client: ts.Client()}
			_, err := f.Fetch(context.Background(), Request{Query: "test"}, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, should contain %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestFetchMalformedJSON(t *testing.T) {
	ts := worksTestServer(http.StatusOK, `{not valid json`)
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	f := &Fetcher{Client: ts.Client()}
	_, err := f.Fetch(context.Background(), Request{Query: "test"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected JSON parse error")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %q, should mention parsing", err.Error())
	}
}

func TestFetchEmptyResults(t *testing.T) {
	emptyJSON := `{"meta":{"count":0,"per_page":50,"page":1},"results":[]}`

	ts := worksTestServer(http.StatusOK, emptyJSON)
	defer ts.Close()

	old := openAlexWorksBase
	openAlexWorksBase = ts.URL
	defer func() { openAlexWorksBase = old }()

	// A nil client falls back to http.DefaultClient.
	f := &Fetcher{}
	seed, err := f.Fetch(context.Background(), Request{Query: "nonexistent"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(seed.Papers) != 0 || len(seed.Fields) != 0 {
		t.Errorf("seed = %+v, want empty", seed)
	}
}
