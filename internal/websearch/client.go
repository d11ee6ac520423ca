package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/phuslu/log"
)

// Result is one raw web search hit before any relevance adjustment.
type Result struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	Type           string  `json:"type"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Client queries the DuckDuckGo instant-answer API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com/"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type instantAnswer struct {
	Abstract         string `json:"Abstract"`
	AbstractText     string `json:"AbstractText"`
	AbstractURL      string `json:"AbstractURL"`
	AbstractSource   string `json:"AbstractSource"`
	Definition       string `json:"Definition"`
	DefinitionURL    string `json:"DefinitionURL"`
	DefinitionSource string `json:"DefinitionSource"`
	Answer           string `json:"Answer"`
	RelatedTopics    []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search runs one instant-answer query and flattens the response into a
// scored result list. Errors degrade to a single low-relevance system
// notice so downstream filtering drops it.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("t", "manufacturing_rag")
	params.Set("safesearch", "moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", "Manufacturing DataSheet RAG System/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("web search request failed")
		return c.fallbackResults(query), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("web search returned non-200")
		return c.fallbackResults(query), nil
	}

	var data instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var results []Result

	if data.Abstract != "" {
		results = append(results, Result{
			Title:          truncateTitle(data.AbstractText),
			Content:        data.Abstract,
			URL:            data.AbstractURL,
			Source:         orDefault(data.AbstractSource, "DuckDuckGo"),
			Type:           "instant_answer",
			RelevanceScore: 0.9,
		})
	}

	for _, topic := range data.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, Result{
			Title:          truncateTitle(topic.Text),
			Content:        topic.Text,
			URL:            topic.FirstURL,
			Source:         "DuckDuckGo Related",
			Type:           "related_topic",
			RelevanceScore: 0.7,
		})
	}

	if data.Definition != "" {
		results = append(results, Result{
			Title:          "정의",
			Content:        data.Definition,
			URL:            data.DefinitionURL,
			Source:         data.DefinitionSource,
			Type:           "definition",
			RelevanceScore: 0.8,
		})
	}

	if data.Answer != "" {
		results = append(results, Result{
			Title:          "답변",
			Content:        data.Answer,
			Source:         "DuckDuckGo Calculator",
			Type:           "direct_answer",
			RelevanceScore: 0.95,
		})
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	log.Info().Str("query", query).Int("results", len(results)).Msg("web search completed")
	return results, nil
}

func (c *Client) fallbackResults(query string) []Result {
	return []Result{{
		Title:          "검색 제한",
		Content:        fmt.Sprintf("'%s'에 대한 외부 검색이 현재 제한되어 있습니다. 내부 문서에서만 검색합니다.", query),
		Source:         "시스템 알림",
		Type:           "system_notice",
		RelevanceScore: 0.1,
	}}
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
