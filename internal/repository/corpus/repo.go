// Package corpus persists corpus documents as Redis hashes behind an FT
// vector index. Documents are write-once at ingestion time.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/db"
	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

// IndexName is the FT index over the corpus.
const IndexName = "poshan-corpus"

// KeyPrefix prefixes every corpus document key.
const KeyPrefix = "poshan:doc:"

// IndexSettings holds the HNSW knobs fixed at index creation. Exposed as
// explicit constructor-time configuration rather than post-hoc mutation.
type IndexSettings struct {
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
	HNSWEFRuntime   int
}

// store is the consumer interface for corpus persistence (ISP).
type store interface {
	db.HashStore
	db.IndexManager
}

// Repo stores and loads corpus documents.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a corpus repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// EnsureIndex creates the corpus FT index if absent. A failure here means
// the system cannot serve retrieval at all, so the error wraps
// domain.ErrIndexUnavailable and the caller should refuse to start.
func (r *Repo) EnsureIndex(ctx context.Context, settings IndexSettings) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Text(fieldText).
		Tag(fieldCategory).
		Tag(fieldRegion).
		Tag(fieldDietType).
		Tag(fieldGIBucket).
		Numeric(fieldProteinG).
		Numeric(fieldCarbsG).
		Numeric(fieldBudgetINR).
		Numeric(fieldPrepMinutes).
		VectorHNSW(fieldVector, settings.Dimensions, db.DistanceCosine,
			settings.HNSWM, settings.HNSWEFConstruct, settings.HNSWEFRuntime).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w: %w", domain.ErrIndexUnavailable, err)
	}

	r.logger.Info("Corpus index created",
		zap.String("index", IndexName),
		zap.Int("dimensions", settings.Dimensions),
	)
	return nil
}

// Upsert stores a single document.
func (r *Repo) Upsert(ctx context.Context, doc document.Document) error {
	if len(doc.Vector) == 0 {
		return fmt.Errorf("document %s has no vector: %w", doc.ID, domain.ErrValidation)
	}
	if err := r.store.HSet(ctx, docKey(doc.ID), fieldsFromDocument(doc)); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// BulkUpsert stores multiple documents in one round-trip.
func (r *Repo) BulkUpsert(ctx context.Context, docs []document.Document) error {
	items := make([]db.HashSetItem, len(docs))
	for i, doc := range docs {
		if len(doc.Vector) == 0 {
			return fmt.Errorf("document %s has no vector: %w", doc.ID, domain.ErrValidation)
		}
		items[i] = db.HashSetItem{Key: docKey(doc.ID), Fields: fieldsFromDocument(doc)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("bulk upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// Get loads a document by id.
func (r *Repo) Get(ctx context.Context, id string) (document.Document, error) {
	fields, err := r.store.HGetAll(ctx, docKey(id))
	if err != nil {
		return document.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(fields) == 0 {
		return document.Document{}, domain.ErrDocumentNotFound
	}
	return DocumentFromFields(id, fields)
}

func docKey(id string) string {
	return KeyPrefix + id
}

// IDFromKey strips the corpus key prefix off a Redis key.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}
