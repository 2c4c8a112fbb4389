// Package ingest handles batch corpus ingestion with per-item error
// reporting: validate, embed in provider-sized chunks, and bulk-upsert.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/domain"
	"github.com/poshan-ai/poshan/internal/domain/document"
)

// MaxBatchSize is the maximum number of items per ingestion request.
const MaxBatchSize = 100

// DefaultEmbedChunkSize is the number of texts sent to the embedding
// provider per call when no provider limit is configured.
const DefaultEmbedChunkSize = 16

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Item is one document to ingest, before embedding.
type Item struct {
	ID         string
	Text       string
	Category   document.Category
	Attributes document.Attributes
}

// ItemResult is the outcome of processing one batch item.
type ItemResult struct {
	ID     string
	Status ItemStatus
	Err    error
}

// Service ingests documents into the corpus.
type Service struct {
	embed        Embedder
	corpus       CorpusWriter
	dimensions   int
	maxBatchSize int
	embedChunk   int
	logger       *zap.Logger
}

// New creates an ingestion service. dimensions is the index vector
// dimensionality; embeddings of any other length are rejected.
func New(embed Embedder, corpus CorpusWriter, dimensions int, logger *zap.Logger) *Service {
	return &Service{
		embed:        embed,
		corpus:       corpus,
		dimensions:   dimensions,
		maxBatchSize: MaxBatchSize,
		embedChunk:   DefaultEmbedChunkSize,
		logger:       logger,
	}
}

// WithEmbedChunkSize configures the provider's maximum embedding batch size.
func (s *Service) WithEmbedChunkSize(size int) *Service {
	if size > 0 {
		s.embedChunk = size
	}
	return s
}

// Ingest validates, embeds, and persists a batch of documents. Every item
// gets an individual result; an oversized batch is rejected whole.
func (s *Service) Ingest(ctx context.Context, items []Item) ([]ItemResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("empty batch: %w", domain.ErrValidation)
	}
	if len(items) > s.maxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds %d: %w",
			len(items), s.maxBatchSize, domain.ErrBatchTooLarge)
	}

	results := make([]ItemResult, len(items))

	// Validate everything up front; only valid items are embedded.
	docs := make([]document.Document, 0, len(items))
	docIdx := make([]int, 0, len(items))
	for i, item := range items {
		doc, err := document.New(item.ID, item.Text, item.Category, item.Attributes)
		if err != nil {
			results[i] = ItemResult{ID: item.ID, Status: StatusError,
				Err: fmt.Errorf("%w: %w", domain.ErrValidation, err)}
			continue
		}
		results[i] = ItemResult{ID: item.ID, Status: StatusOK}
		docs = append(docs, doc)
		docIdx = append(docIdx, i)
	}

	if len(docs) == 0 {
		return results, nil
	}

	embedded, failedAt, embErr := s.embedAll(ctx, docs)
	if embErr != nil {
		// A provider failure cascades to every not-yet-embedded item.
		for _, i := range docIdx[failedAt:] {
			results[i] = ItemResult{ID: items[i].ID, Status: StatusError,
				Err: fmt.Errorf("embed: %w", embErr)}
		}
		docs = embedded
		docIdx = docIdx[:failedAt]
	} else {
		docs = embedded
	}

	if len(docs) == 0 {
		return results, nil
	}

	if err := s.corpus.BulkUpsert(ctx, docs); err != nil {
		for _, i := range docIdx {
			results[i] = ItemResult{ID: items[i].ID, Status: StatusError,
				Err: fmt.Errorf("upsert: %w", err)}
		}
		return results, nil
	}

	s.logger.Info("Batch ingested",
		zap.Int("items", len(items)),
		zap.Int("stored", len(docs)),
	)
	return results, nil
}

// embedAll vectorizes documents in provider-sized chunks. On failure it
// returns the documents embedded so far plus the index the failure hit.
func (s *Service) embedAll(ctx context.Context, docs []document.Document) ([]document.Document, int, error) {
	embedded := make([]document.Document, 0, len(docs))

	for start := 0; start < len(docs); start += s.embedChunk {
		end := min(start+s.embedChunk, len(docs))

		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		res, err := s.embed.BatchEmbed(ctx, texts)
		if err != nil {
			return embedded, start, err
		}
		domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
		if len(res.Embeddings) != len(texts) {
			return embedded, start, fmt.Errorf("provider returned %d embeddings for %d texts: %w",
				len(res.Embeddings), len(texts), domain.ErrProviderTransient)
		}

		for j, d := range docs[start:end] {
			vec := res.Embeddings[j]
			if s.dimensions > 0 && len(vec) != s.dimensions {
				return embedded, start + j, fmt.Errorf("embedding has %d dimensions, index expects %d: %w",
					len(vec), s.dimensions, domain.ErrVectorDimMismatch)
			}
			embedded = append(embedded, d.WithVector(vec))
		}
	}

	return embedded, len(docs), nil
}
