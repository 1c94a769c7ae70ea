package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/raphaelgruber/scout-go/internal/models"
)

// resultsPerDepth maps a strategy's search depth to how many sources one
// search call returns.
var resultsPerDepth = map[string]int{
	models.SearchDepthShallow:  3,
	models.SearchDepthStandard: 5,
	models.SearchDepthDeep:     8,
}

const searchUserAgent = "Mozilla/5.0 (compatible; scout/1.0)"

var (
	resultLinkRe    = regexp.MustCompile(`<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	resultSnippetRe = regexp.MustCompile(`<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
)

// NewWebSearchTool returns the web search executor, backed by DuckDuckGo's
// HTML endpoint. Result count follows the strategy's search depth.
func NewWebSearchTool(httpClient *http.Client, logger *slog.Logger) ToolFunc {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return func(ctx context.Context, rc RunContext, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("search query must not be empty")
		}

		limit, ok := resultsPerDepth[rc.Config.SearchDepth]
		if !ok {
			limit = resultsPerDepth[models.SearchDepthStandard]
		}

		body := url.Values{"q": {query}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://html.duckduckgo.com/html/", strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create search request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", searchUserAgent)

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
		}

		page, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		if err != nil {
			return nil, fmt.Errorf("read search response: %w", err)
		}

		results := parseSearchResults(string(page), limit)
		logger.Debug("web search", "query", query, "results", len(results), "episode_id", rc.EpisodeID)
		return SearchOutput{Results: results}, nil
	}
}

// parseSearchResults extracts result links and snippets from the DuckDuckGo
// HTML result page.
func parseSearchResults(page string, limit int) []SearchResult {
	links := resultLinkRe.FindAllStringSubmatch(page, limit)
	snippets := resultSnippetRe.FindAllStringSubmatch(page, limit)

	results := make([]SearchResult, 0, len(links))
	for i, m := range links {
		r := SearchResult{
			URL:   resolveRedirect(m[1]),
			Title: stripTags(m[2]),
		}
		if i < len(snippets) {
			r.Snippet = stripTags(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}

func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}

const evaluateSystemPrompt = `You rate research sources. For each URL, score its likely
credibility and relevance from 0.0 to 1.0 and give a one-word verdict (keep or skip).
Respond with a JSON array only: [{"url": "...", "score": 0.8, "verdict": "keep", "rationale": "..."}]`

// NewEvaluateSourcesTool returns the source evaluation executor, backed by
// the fast model tier.
func NewEvaluateSourcesTool(newModel ModelFactory) ToolFunc {
	return func(ctx context.Context, rc RunContext, args map[string]any) (any, error) {
		urls := stringSlice(args["urls"])
		if len(urls) == 0 {
			return nil, fmt.Errorf("no urls to evaluate")
		}

		model, err := newModel(ctx, models.ModelTierFast)
		if err != nil {
			return nil, fmt.Errorf("resolve model: %w", err)
		}

		resp, err := model.GenerateContent(ctx, []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, evaluateSystemPrompt),
			llms.TextParts(llms.ChatMessageTypeHuman, strings.Join(urls, "\n")),
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate sources: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("evaluate sources: empty response")
		}

		var evaluations []SourceEvaluation
		if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Content)), &evaluations); err != nil {
			return nil, fmt.Errorf("parse evaluation response: %w", err)
		}
		return EvaluationOutput{Evaluations: evaluations}, nil
	}
}

const extractSystemPrompt = `You distill research findings. Given a focus area, list the key
learnings gathered so far in this research session as short standalone statements.
Respond with a JSON array of strings only.`

// NewExtractLearningsTool returns the learning extraction executor, backed
// by the fast model tier.
func NewExtractLearningsTool(newModel ModelFactory) ToolFunc {
	return func(ctx context.Context, rc RunContext, args map[string]any) (any, error) {
		focus, _ := args["focus"].(string)
		if focus == "" {
			focus = "the overall research question"
		}

		model, err := newModel(ctx, models.ModelTierFast)
		if err != nil {
			return nil, fmt.Errorf("resolve model: %w", err)
		}

		resp, err := model.GenerateContent(ctx, []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, extractSystemPrompt),
			llms.TextParts(llms.ChatMessageTypeHuman, "Focus: "+focus),
		})
		if err != nil {
			return nil, fmt.Errorf("extract learnings: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("extract learnings: empty response")
		}

		var learnings []string
		if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Content)), &learnings); err != nil {
			return nil, fmt.Errorf("parse extraction response: %w", err)
		}
		return LearningOutput{Learnings: learnings}, nil
	}
}

// NewDefaultRegistry wires up the four built-in research tools.
func NewDefaultRegistry(newModel ModelFactory, notes NoteSearcher, logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.Register(models.ToolWebSearch, NewWebSearchTool(nil, logger))
	r.Register(models.ToolEvaluateSources, NewEvaluateSourcesTool(newModel))
	r.Register(models.ToolExtractLearnings, NewExtractLearningsTool(newModel))
	r.Register(models.ToolSensoQuery, NewSensoTool(notes))
	return r
}

// extractJSON trims markdown fences and surrounding prose from a model
// response, keeping the outermost JSON array.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
