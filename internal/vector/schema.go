package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the single Weaviate class holding all chunks. Isolation
// between ingestions comes from multi-tenancy: one tenant per ingestion id.
const ClassName = "LearningChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema checks that the chunk class exists and creates it if not.
// On an existing class, missing properties are backfilled.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "fileName",
			DataType: []string{"string"}, // exact match
		},
		{
			Name:     "chunkType",
			DataType: []string{"string"}, // "text" or "table"
		},
		{
			Name:     "sectionTitle",
			DataType: []string{"text"},
		},
		{
			Name:     "pageStart",
			DataType: []string{"int"},
		},
		{
			Name:     "pageEnd",
			DataType: []string{"int"},
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "A retrievable chunk of an ingested document",
			Vectorizer:  "none",
			Properties:  properties,
			MultiTenancyConfig: &models.MultiTenancyConfig{
				Enabled: true,
			},
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}
