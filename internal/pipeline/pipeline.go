package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowgenius/flowdex/internal/domain"
	"github.com/flowgenius/flowdex/internal/telemetry"
)

// Stage names the pipeline state a document is in when a failure occurs.
type Stage string

const (
	StageLoading    Stage = "Loading"
	StageChunking   Stage = "Chunking"
	StageScoring    Stage = "Scoring"
	StageEmbedding  Stage = "Embedding"
	StagePersisting Stage = "Persisting"
)

// StageError wraps a stage failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ToolRegistry validates tool ownership before indexing.
// Satisfied by repository.ToolRepository.
type ToolRegistry interface {
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
}

// IndexRequest describes one document to index.
type IndexRequest struct {
	ToolID     string            `json:"tool_id"`
	SourcePath string            `json:"source_path"`
	SourceType domain.SourceType `json:"source_type,omitempty"`
	Title      string            `json:"title,omitempty"`
}

// DocumentReport is the outcome of indexing one document.
type DocumentReport struct {
	ToolID     string            `json:"tool_id"`
	SourcePath string            `json:"source_path"`
	SourceType domain.SourceType `json:"source_type"`
	ChunkCount int               `json:"chunk_count"`
	Persist    PersistReport     `json:"persist"`
	Duration   time.Duration     `json:"duration_ns"`
	// FailedStage and Error are set when the document failed.
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchReport aggregates per-document outcomes of a batch run.
type BatchReport struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Documents []*DocumentReport `json:"documents"`
}

// Pipeline sequences loading, chunking, scoring, embedding and persisting.
// All collaborators are injected at construction.
type Pipeline struct {
	loader    *Loader
	chunker   *Chunker
	batcher   *Batcher
	persister *Persister
	tools     ToolRegistry
	opts      Options
}

// New builds a pipeline, validating the options eagerly so a bad
// configuration is rejected before any stage runs.
func New(loader *Loader, embedder Embedder, store ChunkStore, tools ToolRegistry, opts Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		loader:    loader,
		chunker:   NewChunker(opts.ChunkSize, opts.ChunkOverlap, opts.MinChunkChars),
		batcher:   NewBatcher(embedder, opts),
		persister: NewPersister(store, opts.EmbeddingDimensions),
		tools:     tools,
		opts:      opts,
	}, nil
}

// IndexDocument runs all stages for one document. Any stage failure halts
// the document and the error names the failing stage. Nothing is persisted
// unless every chunk's vector was obtained.
func (p *Pipeline) IndexDocument(ctx context.Context, req IndexRequest) (*DocumentReport, error) {
	started := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "pipeline.index_document", telemetry.SpanAttributes{
		ToolID:     req.ToolID,
		SourcePath: req.SourcePath,
		Operation:  "index",
	})
	defer span.End()

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.DetectSourceType(req.SourcePath)
	}
	title := req.Title
	if title == "" {
		title = TitleFromPath(req.SourcePath)
	}

	report := &DocumentReport{
		ToolID:     req.ToolID,
		SourcePath: req.SourcePath,
		SourceType: sourceType,
	}

	fail := func(stage Stage, err error) (*DocumentReport, error) {
		stageErr := &StageError{Stage: stage, Err: err}
		report.FailedStage = stage
		report.Error = stageErr.Error()
		report.Duration = time.Since(started)
		span.SetError(stageErr)
		return report, stageErr
	}

	if _, err := p.tools.GetByID(ctx, req.ToolID); err != nil {
		return fail(StageLoading, err)
	}

	text, meta, err := p.loader.Load(ctx, req.SourcePath, sourceType)
	if err != nil {
		return fail(StageLoading, err)
	}

	texts := p.chunker.Split(text)
	if len(texts) == 0 {
		return fail(StageChunking, domain.ErrEmptyDocument)
	}

	chunks := make([]domain.KnowledgeChunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.KnowledgeChunk{
			ToolID:       req.ToolID,
			SourcePath:   req.SourcePath,
			SourceType:   sourceType,
			Title:        title,
			Content:      t,
			ChunkIndex:   i,
			QualityScore: ScoreQuality(t),
			Metadata: map[string]interface{}{
				"content_length": meta.ContentLength,
				"chunk_total":    len(texts),
			},
		}
	}

	vectors, err := p.batcher.EmbedAll(ctx, texts)
	if err != nil {
		return fail(StageEmbedding, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	persistReport, err := p.persister.Persist(ctx, chunks)
	if persistReport != nil {
		report.Persist = *persistReport
	}
	if err != nil {
		return fail(StagePersisting, err)
	}

	report.ChunkCount = len(chunks)
	report.Duration = time.Since(started)
	return report, nil
}

// IndexBatch indexes documents with per-document isolation: one document's
// failure is recorded in its report and does not abort the rest. When
// concurrency is greater than one, documents run in parallel; cancellation
// is honored at document boundaries.
func (p *Pipeline) IndexBatch(ctx context.Context, reqs []IndexRequest, concurrency int) *BatchReport {
	return p.IndexBatchProgress(ctx, reqs, concurrency, nil)
}

// IndexBatchProgress is IndexBatch with a callback invoked after each
// document finishes. The callback may run from multiple goroutines.
func (p *Pipeline) IndexBatchProgress(ctx context.Context, reqs []IndexRequest, concurrency int, onDone func(*DocumentReport)) *BatchReport {
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*DocumentReport, len(reqs))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				reports[i] = &DocumentReport{
					ToolID:      req.ToolID,
					SourcePath:  req.SourcePath,
					FailedStage: StageLoading,
					Error:       err.Error(),
				}
				if onDone != nil {
					onDone(reports[i])
				}
				return nil
			}

			report, err := p.IndexDocument(groupCtx, req)
			reports[i] = report
			// Failures stay in the report; returning nil keeps the
			// group draining the remaining documents.
			_ = err
			if onDone != nil {
				onDone(report)
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchReport{Documents: reports}
	for _, r := range reports {
		if r != nil && r.FailedStage == "" {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// Stats reads aggregated chunk counts and samples for a tool. Read-only, no
// pipeline stages run.
func (p *Pipeline) Stats(ctx context.Context, toolID string) (*domain.ToolKnowledgeStats, error) {
	if _, err := p.tools.GetByID(ctx, toolID); err != nil {
		return nil, err
	}
	return p.persister.store.GetToolStats(ctx, toolID, 3)
}

// Cleanup irreversibly deletes stored chunks for a tool, optionally scoped
// to one source path. The caller must pass confirm; its absence is a
// configuration error, never a silent no-op.
func (p *Pipeline) Cleanup(ctx context.Context, toolID, sourcePath string, confirm bool) (int64, error) {
	if !confirm {
		return 0, domain.ErrCleanupNotConfirmed
	}
	if _, err := p.tools.GetByID(ctx, toolID); err != nil {
		return 0, err
	}
	return p.persister.Cleanup(ctx, toolID, sourcePath)
}
