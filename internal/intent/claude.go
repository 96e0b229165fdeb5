// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/chart-engine/internal/httputil"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// plannerPromptTmpl is the prompt sent to the Claude API for each message.
// It instructs the model to emit only the fields the message itself states,
// leaving inheritance from the previous plan to the resolver. Per
// prd004-intent-parsing R2.1.
var plannerPromptTmpl = template.Must(template.New("planner").Parse(`You are the planning layer of a research-paper chart service. Read the user's message and emit a JSON object describing only what the message itself states or clearly implies. Return ONLY valid JSON (no markdown, no code fences).

Supported charts:
- papers_by_year: counts of papers grouped by publication year
- papers_by_field: counts of papers grouped by field name

JSON keys (emit a key only when the message specifies it; omit everything else):
- chart_type: "papers_by_year" or "papers_by_field"
- year_from, year_to: integers
- doctype: publication type such as "article" or "preprint"
- field_level: integer, papers_by_field only
- field_score_min: number between 0 and 1, papers_by_field only
- top_k: integer, papers_by_field only
- color: a CSS color string when the user names one (e.g. "red", "#ff0000", "crimson")
- mark: "bar", "line", or "area" ("line chart" or "trend" means "line"; "area chart" means "area")
- compare: true when the user asks to compare two year ranges, false when they ask to stop comparing
- compare_year_from, compare_year_to: integers for the second range

Rules:
- The previous plan below, when present, is context for reading references like "same chart" or "that range". Do not copy its values into your output; omitted keys already mean "keep as is".
- To clear color or doctype, emit the key with an empty string "".
- For "2018-2022 vs 2023-2024" the first range is year_from/year_to, the second is compare_year_from/compare_year_to, and compare is true.

Example message: "make it a line chart and compare 2015-2019 vs 2020-2024"
Example response:
{"mark": "line", "compare": true, "year_from": 2015, "year_to": 2019, "compare_year_from": 2020, "compare_year_to": 2024}
{{if .PrevPlan}}
Previous plan (context only):
{{.PrevPlan}}
{{end}}
User message:
{{.Message}}
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeParser asks the Claude API to read a conversation message into a
// sparse intent. Per prd004-intent-parsing R2.
type ClaudeParser struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Parse renders the planner prompt and decodes the model's JSON reply into
// an Intent. Rate-limited and overloaded responses are retried before the
// call is reported as failed.
func (c *ClaudeParser) Parse(ctx context.Context, message string, prev *types.Plan) (types.Intent, error) {
	prompt, err := renderPrompt(message, prev)
	if err != nil {
		return types.Intent{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 1024,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.Intent{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.Intent{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return types.Intent{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.Intent{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.Intent{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var in types.Intent
		if err := json.Unmarshal([]byte(stripFences(block.Text)), &in); err != nil {
			return types.Intent{}, fmt.Errorf("parsing planner response JSON: %w", err)
		}
		return in, nil
	}

	return types.Intent{}, fmt.Errorf("no text content in Claude API response")
}

// renderPrompt executes the planner prompt template with the message and the
// previous plan serialized as JSON.
func renderPrompt(message string, prev *types.Plan) (string, error) {
	var prevJSON string
	if prev != nil {
		b, err := json.Marshal(prev)
		if err != nil {
			return "", fmt.Errorf("marshaling previous plan: %w", err)
		}
		prevJSON = string(b)
	}

	var buf bytes.Buffer
	err := plannerPromptTmpl.Execute(&buf, struct{ PrevPlan, Message string }{prevJSON, message})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripFences removes a Markdown code fence around a JSON payload. Models
// occasionally wrap output in fences despite being told not to.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSpace(strings.Trim(s, "`"))
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}
