// Package reranker scores candidate chunks against a query with a hosted
// cross-encoder. Jina and Cohere expose the same request/response shape, so
// one client covers both providers.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	jinaURL     = "https://api.jina.ai/v1/rerank"
	jinaModel   = "jina-reranker-v1-base-en"
	cohereURL   = "https://api.cohere.ai/v1/rerank"
	cohereModel = "rerank-english-v3.0"
)

type Client struct {
	provider string
	apiKey   string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Score returns a relevance score per document, aligned with the input
// order. An unknown or empty provider yields uniform scores, which leaves
// the caller's ordering untouched.
func (c *Client) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	switch c.provider {
	case "jina":
		return c.score(ctx, jinaURL, jinaModel, query, docs)
	case "cohere":
		return c.score(ctx, cohereURL, cohereModel, query, docs)
	}
	return make([]float64, len(docs)), nil
}

func (c *Client) score(ctx context.Context, url, model, query string, docs []string) ([]float64, error) {
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":            model,
		"query":            query,
		"documents":        docs,
		"top_n":            len(docs),
		"return_documents": false,
	}

	jsonBody, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s api error: %d %s", c.provider, resp.StatusCode, string(body))
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	scores := make([]float64, len(docs))
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < len(docs) {
			scores[r.Index] = r.Score
		}
	}
	return scores, nil
}
