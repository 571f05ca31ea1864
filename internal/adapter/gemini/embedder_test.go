package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"edugen/internal/adapter/gemini"
)

func TestEmbedder_EmbedQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{
				"values": []float32{0.1, 0.2, 0.3},
			},
		})
	}))
	defer ts.Close()

	embedder, err := gemini.NewEmbedder(context.Background(), "test-key", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer embedder.Close()

	vec, err := embedder.EmbedQuery(context.Background(), "what is gradient descent")
	require.NoError(t, err)
	if assert.Len(t, vec, 3) {
		assert.Equal(t, float32(0.1), vec[0])
	}
}

func TestEmbedder_EmbedDocuments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": []map[string]interface{}{
				{"values": []float32{0.1, 0.2}},
				{"values": []float32{0.3, 0.4}},
			},
		})
	}))
	defer ts.Close()

	embedder, err := gemini.NewEmbedder(context.Background(), "test-key", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer embedder.Close()

	vecs, err := embedder.EmbedDocuments(context.Background(), []string{"chunk one", "chunk two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(0.3), vecs[1][0])
}

func TestEmbedder_EmbedDocuments_Empty(t *testing.T) {
	embedder, err := gemini.NewEmbedder(context.Background(), "test-key")
	require.NoError(t, err)
	defer embedder.Close()

	vecs, err := embedder.EmbedDocuments(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestLLM_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []map[string]interface{}{{"text": "generated answer"}},
					},
				},
			},
		})
	}))
	defer ts.Close()

	llm, err := gemini.NewLLM(context.Background(), "test-key", "gemini-2.5-flash", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer llm.Close()

	out, err := llm.Generate(context.Background(), "write a question", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "generated answer", out)
}
