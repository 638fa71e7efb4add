package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"habita-engine/internal/domain"
	"habita-engine/internal/scrape/normalize"
)

const anthropicVersion = "2023-06-01"

type ClaudeConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	MaxListings int // cap on how many listings go into one prompt
}

// Claude scores listings through the Anthropic Messages API. The model is
// asked for strict JSON; since replies occasionally wrap it in prose, the
// first top-level JSON object is cut out by regex before decoding.
type Claude struct {
	cfg     ClaudeConfig
	baseURL string
	hc      *http.Client
}

func NewClaude(cfg ClaudeConfig) *Claude {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = 30
	}
	return &Claude{
		cfg:     cfg,
		baseURL: "https://api.anthropic.com",
		hc:      &http.Client{Timeout: 60 * time.Second},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type itemAnalysis struct {
	Number       int      `json:"number"`
	PriceVerdict string   `json:"price_verdict"`
	Score        float64  `json:"score"`
	Summary      string   `json:"summary"`
	Pros         []string `json:"pros"`
	Cons         []string `json:"cons"`
}

type topPick struct {
	Number int    `json:"number"`
	Reason string `json:"reason"`
}

type analysisPayload struct {
	Analyses []itemAnalysis `json:"analyses"`
	TopPicks []topPick      `json:"top_picks"`
	Advice   string         `json:"advice"`
}

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]+\}`)

func (c *Claude) Annotate(ctx context.Context, listings []domain.Listing, crit domain.Criteria) (string, error) {
	if len(listings) == 0 {
		return "", nil
	}

	n := len(listings)
	if n > c.cfg.MaxListings {
		n = c.cfg.MaxListings
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []message{{Role: "user", Content: buildPrompt(listings[:n], crit)}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	res, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("annotator request: %w", err)
	}
	defer res.Body.Close()

	data, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("annotator status %d: %s", res.StatusCode, truncate(string(data), 240))
	}

	var mr messagesResponse
	if err := json.Unmarshal(data, &mr); err != nil {
		return "", fmt.Errorf("annotator decode: %w", err)
	}
	var text string
	for _, blk := range mr.Content {
		if blk.Type == "text" {
			text = blk.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("annotator: empty reply")
	}

	blob := jsonBlockRe.FindString(text)
	if blob == "" {
		return "", fmt.Errorf("annotator: no json in reply")
	}
	var payload analysisPayload
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return "", fmt.Errorf("annotator json: %w", err)
	}

	apply(listings[:n], payload)
	return payload.Advice, nil
}

// apply maps 1-based item numbers back onto the listing slice.
func apply(listings []domain.Listing, p analysisPayload) {
	analyses := make(map[int]itemAnalysis, len(p.Analyses))
	for _, a := range p.Analyses {
		analyses[a.Number] = a
	}
	picks := make(map[int]topPick, len(p.TopPicks))
	for _, t := range p.TopPicks {
		picks[t.Number] = t
	}

	for i := range listings {
		num := i + 1
		if a, ok := analyses[num]; ok {
			score := a.Score
			listings[i].AIScore = &score
			listings[i].PriceVerdict = a.PriceVerdict
			listings[i].AISummary = a.Summary
			listings[i].AIPros = a.Pros
			listings[i].AICons = a.Cons
		}
		if t, ok := picks[num]; ok {
			listings[i].InTopN = true
			listings[i].TopNReason = t.Reason
		}
	}
}

func buildPrompt(listings []domain.Listing, c domain.Criteria) string {
	var sb strings.Builder
	for i, l := range listings {
		area := "?"
		if l.Area != nil {
			area = fmt.Sprintf("%.0f", *l.Area)
		}
		fmt.Fprintf(&sb, "#%d [%s] %s | %s | %s | %sm² | rooms:%v stratum:%v\n",
			i+1, l.Source, l.Title, l.Neighborhood, l.PriceFormatted, area, orQ(l.Bedrooms), orQ(l.Stratum))
	}

	minFmt := normalize.FormatPrice(&c.PriceMin)
	maxFmt := normalize.FormatPrice(&c.PriceMax)

	return fmt.Sprintf(`You are a real-estate expert for the Colombian market. A buyer wants:
%s in %s | %s
Price: %s - %s | Area: %.0f-%.0f m2

Properties:
%s
Reply ONLY with valid JSON, no extra text:
{
  "analyses": [
    {"number":1,"price_verdict":"EXCELLENT","score":8,"summary":"...","pros":["..."],"cons":["..."]}
  ],
  "top_picks": [{"number":1,"reason":"..."},{"number":2,"reason":"..."},{"number":3,"reason":"..."}],
  "advice":"..."
}`, c.PropertyType, c.City, c.Transaction, minFmt, maxFmt, c.AreaMin, c.AreaMax, sb.String())
}

func orQ(v any) any {
	if v == nil {
		return "?"
	}
	return v
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
