// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch pulls publication records from the OpenAlex Works API and
// collects them into corpus seed files for ingest.
// Implements: prd008-corpus-fetch (R1-R4);
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// userAgent identifies the client to the OpenAlex polite pool.
const userAgent = "chart-engine/1.0"

// perPageMax is the largest page size OpenAlex accepts.
const perPageMax = 200

// defaultMaxWorks bounds a fetch when the request does not.
const defaultMaxWorks = 200

// Request describes one corpus fetch.
type Request struct {
	// Query is the full-text search string sent to OpenAlex.
	Query string
	// Years bounds publication dates, inclusive on both ends. A zero bound
	// leaves that end open.
	Years types.YearRange
	// MaxWorks caps how many papers are collected. Zero means
	// defaultMaxWorks.
	MaxWorks int
}

// Fetcher queries the OpenAlex API (R1.1). A nil Client falls back to
// http.DefaultClient.
type Fetcher struct {
	Client *http.Client
	// Email is sent as the mailto parameter for polite pool access.
	Email string
}

// Fetch pages through the works matching the request and collects them into
// a seed: papers with year, doctype, and citation count, plus a deduplicated
// dictionary of their fields of study (R1-R3). Works without a publication
// year are dropped so the seed ingests cleanly; one progress line per page
// goes to w.
func (f *Fetcher) Fetch(ctx context.Context, req Request, w io.Writer) (*Seed, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty fetch query")
	}

	maxWorks := req.MaxWorks
	if maxWorks <= 0 {
		maxWorks = defaultMaxWorks
	}
	perPage := maxWorks
	if perPage > perPageMax {
		perPage = perPageMax
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	seed := &Seed{}
	fields := make(map[string]Field)
	for page := 1; len(seed.Papers) < maxWorks; page++ {
		res, err := f.fetchPage(ctx, client, req, perPage, page)
		if err != nil {
			return nil, err
		}
		if len(res.Results) == 0 {
			break
		}

		added := 0
		for _, work := range res.Results {
			if len(seed.Papers) >= maxWorks {
				break
			}
			p, ok := paperFrom(work, fields)
			if !ok {
				fmt.Fprintf(w, "skipped %s: no publication year\n", shortID(work.ID))
				continue
			}
			seed.Papers = append(seed.Papers, p)
			added++
		}
		fmt.Fprintf(w, "page %d: %d works (%d total)\n", page, added, len(seed.Papers))

		// A short page means OpenAlex has nothing further.
		if len(res.Results) < perPage {
			break
		}
	}

	for _, fld := range fields {
		seed.Fields = append(seed.Fields, fld)
	}
	sort.Slice(seed.Fields, func(i, j int) bool { return seed.Fields[i].ID < seed.Fields[j].ID })

	return seed, nil
}

// fetchPage requests one page of works.
func (f *Fetcher) fetchPage(ctx context.Context, client *http.Client, req Request, perPage, page int) (*worksResponse, error) {
	params := url.Values{
		"search":   {req.Query},
		"per_page": {fmt.Sprintf("%d", perPage)},
		"page":     {fmt.Sprintf("%d", page)},
		"select":   {"id,doi,publication_year,type,type_crossref,cited_by_count,concepts"},
	}

	// Build filters for the publication-year range.
	var filters []string
	if req.Years.From > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", req.Years.From))
	}
	if req.Years.To > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", req.Years.To))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	if f.Email != "" {
		params.Set("mailto", f.Email)
	}

	reqURL := openAlexWorksBase + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var res worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return &res, nil
}

// paperFrom converts one work into a seed paper, registering its concepts in
// the field dictionary. ok is false for works the corpus cannot hold (no id
// or no publication year). Concepts missing an id or name are dropped.
func paperFrom(work openAlexWork, fields map[string]Field) (Paper, bool) {
	if work.ID == "" || work.PublicationYear == 0 {
		return Paper{}, false
	}

	p := Paper{
		ID:           shortID(work.ID),
		DOI:          strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Year:         work.PublicationYear,
		Doctype:      doctypeFor(work.Type, work.TypeCrossref),
		CitedByCount: work.CitedByCount,
	}

	for _, c := range work.Concepts {
		if c.ID == "" || c.DisplayName == "" {
			continue
		}
		id := shortID(c.ID)
		if _, ok := fields[id]; !ok {
			fields[id] = Field{ID: id, DisplayName: c.DisplayName, Level: c.Level}
		}
		p.Fields = append(p.Fields, PaperField{ID: id, Score: c.Score})
	}
	return p, true
}

// shortID strips the https://openalex.org/ prefix so corpus ids stay compact.
func shortID(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

// doctypeFor maps OpenAlex work types onto the corpus doctype vocabulary.
// The Crossref genre wins for conference papers, which OpenAlex otherwise
// files under plain "article". Other types pass through unchanged.
func doctypeFor(workType, crossrefType string) string {
	if crossrefType == "proceedings-article" {
		return "conference"
	}
	if workType == "" {
		return "article"
	}
	return workType
}

// OpenAlex API JSON structures.
type worksResponse struct {
	Meta    worksMeta      `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type worksMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID              string            `json:"id"`
	DOI             string            `json:"doi"`
	PublicationYear int               `json:"publication_year"`
	Type            string            `json:"type"`
	TypeCrossref    string            `json:"type_crossref"`
	CitedByCount    int               `json:"cited_by_count"`
	Concepts        []openAlexConcept `json:"concepts"`
}

type openAlexConcept struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}
