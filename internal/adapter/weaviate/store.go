// Package weaviate adapts the Weaviate client to the ingestion and retrieval
// interfaces. Each ingestion id maps to one tenant of the LearningChunk
// class, giving every ingested document an isolated collection.
package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"edugen/internal/retrieval"
	"edugen/internal/text"
	"edugen/internal/vector"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// ChunkID derives the deterministic object id for a chunk. Weaviate requires
// UUID ids, so the canonical "{ingestionID}_chunk_{index}" key is hashed into
// a v5 UUID; the same ingestion and index always yield the same id.
func ChunkID(ingestionID string, index int) string {
	key := fmt.Sprintf("%s_chunk_%d", ingestionID, index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// StoreChunks persists chunks with their embedding vectors into the tenant
// for ingestionID, creating the tenant on first use. Storing zero chunks is
// a no-op: no tenant is created, so a later query reports not found.
func (s *Store) StoreChunks(ctx context.Context, ingestionID string, chunks []text.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vector count %d does not match chunk count %d", len(vectors), len(chunks))
	}

	if err := s.ensureTenant(ctx, ingestionID); err != nil {
		return fmt.Errorf("ensure tenant: %w", err)
	}

	for i, chunk := range chunks {
		_, err := s.client.Data().Creator().
			WithClassName(vector.ClassName).
			WithTenant(ingestionID).
			WithID(ChunkID(ingestionID, i)).
			WithProperties(map[string]interface{}{
				"content":      chunk.Text,
				"fileName":     chunk.FileName,
				"chunkType":    string(chunk.Type),
				"sectionTitle": chunk.SectionTitle,
				"pageStart":    chunk.PageStart,
				"pageEnd":      chunk.PageEnd,
				"chunkIndex":   i,
			}).
			WithVector(vectors[i]).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("store chunk %d: %w", i, err)
		}
	}

	return nil
}

// Query returns up to limit nearest neighbors from the ingestion's tenant.
// A missing tenant yields retrieval.ErrNotFound; callers treat that as an
// empty result, not a hard error.
func (s *Store) Query(ctx context.Context, ingestionID string, vec []float32, limit int) ([]retrieval.Candidate, error) {
	exists, err := s.client.Schema().TenantsExists().
		WithClassName(vector.ClassName).
		WithTenant(ingestionID).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("check tenant: %w", err)
	}
	if !exists {
		return nil, retrieval.ErrNotFound
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "fileName"},
		{Name: "chunkType"},
		{Name: "sectionTitle"},
		{Name: "pageStart"},
		{Name: "pageEnd"},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithTenant(ingestionID).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Message
		}
		joined := strings.Join(msgs, "; ")
		if strings.Contains(strings.ToLower(joined), "tenant") {
			return nil, retrieval.ErrNotFound
		}
		return nil, fmt.Errorf("graphql error: %s", joined)
	}

	return parseCandidates(res.Data), nil
}

// DropCollection removes the ingestion's tenant and everything in it.
// Dropping a tenant that never existed is not an error.
func (s *Store) DropCollection(ctx context.Context, ingestionID string) error {
	return s.client.Schema().TenantsDeleter().
		WithClassName(vector.ClassName).
		WithTenants(ingestionID).
		Do(ctx)
}

func (s *Store) ensureTenant(ctx context.Context, ingestionID string) error {
	exists, err := s.client.Schema().TenantsExists().
		WithClassName(vector.ClassName).
		WithTenant(ingestionID).
		Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.Schema().TenantsCreator().
		WithClassName(vector.ClassName).
		WithTenants(models.Tenant{Name: ingestionID}).
		Do(ctx)
}

func parseCandidates(data map[string]models.JSONObject) []retrieval.Candidate {
	var out []retrieval.Candidate

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	items, ok := get[vector.ClassName].([]interface{})
	if !ok {
		return out
	}

	for _, item := range items {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		c := retrieval.Candidate{}
		if content, ok := props["content"].(string); ok {
			c.Text = content
		}
		if v, ok := props["fileName"].(string); ok {
			c.Meta.FileName = v
		}
		if v, ok := props["chunkType"].(string); ok {
			c.Meta.ChunkType = v
		}
		if v, ok := props["sectionTitle"].(string); ok {
			c.Meta.SectionTitle = v
		}
		if v, ok := props["pageStart"].(float64); ok {
			c.Meta.PageStart = int(v)
		}
		if v, ok := props["pageEnd"].(float64); ok {
			c.Meta.PageEnd = int(v)
		}

		out = append(out, c)
	}

	return out
}
