package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"hcplog/metrics"
	"hcplog/models"
	"hcplog/store"
	"hcplog/workflow"
)

// FallbackSummary marks chat records saved without a successful pipeline run.
const FallbackSummary = "AI failed - saved raw text"

// Pipeline turns chat text into a provider name, notes and summary.
type Pipeline interface {
	Invoke(ctx context.Context, in workflow.State) (workflow.State, error)
}

// InteractionService implements the interaction log operations on top of a store.
type InteractionService struct {
	store    store.InteractionStore
	pipeline Pipeline
	now      Clock
	metrics  *metrics.Metrics
}

type Option func(*InteractionService)

func WithClock(c Clock) Option {
	return func(s *InteractionService) { s.now = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *InteractionService) { s.metrics = m }
}

func NewInteractionService(st store.InteractionStore, p Pipeline, opts ...Option) *InteractionService {
	s := &InteractionService{store: st, pipeline: p, now: UTCNow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogInteraction stores a structured submission.
func (s *InteractionService) LogInteraction(ctx context.Context, in models.InteractionInput) (*models.Interaction, error) {
	rec := &models.Interaction{
		HCPName:   in.HCPName,
		Notes:     in.Notes,
		Summary:   "Met " + in.HCPName,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.RecordCreated("log")
	return rec, nil
}

// ChatLog derives a record from free text. When the pipeline fails the raw
// text is stored under UnknownHCP with FallbackSummary.
func (s *InteractionService) ChatLog(ctx context.Context, in models.ChatInput) (*models.Interaction, error) {
	rec := &models.Interaction{CreatedAt: s.now()}

	start := time.Now()
	out, err := s.pipeline.Invoke(ctx, workflow.State{Text: in.Text})
	s.metrics.ObservePipeline(time.Since(start), err)
	if err != nil {
		slog.Warn("chat pipeline failed, saving raw text", "error", err)
		rec.HCPName = workflow.UnknownHCP
		rec.Notes = in.Text
		rec.Summary = FallbackSummary
	} else {
		rec.HCPName = out.HCPName
		rec.Notes = out.Notes
		rec.Summary = out.Summary
	}

	// The request may have been cancelled mid-pipeline; the record is still saved.
	if err := s.store.Create(context.WithoutCancel(ctx), rec); err != nil {
		return nil, err
	}
	s.metrics.RecordCreated("chat")
	return rec, nil
}

// List returns every record, newest first.
func (s *InteractionService) List(ctx context.Context) ([]models.Interaction, error) {
	return s.store.List(ctx)
}

func (s *InteractionService) Get(ctx context.Context, id int64) (*models.Interaction, error) {
	return s.store.Get(ctx, id)
}

// Update replaces name and notes and recomputes the summary. id and
// created_at are kept.
func (s *InteractionService) Update(ctx context.Context, id int64, in models.InteractionInput) (*models.Interaction, error) {
	rec := &models.Interaction{
		ID:      id,
		HCPName: in.HCPName,
		Notes:   in.Notes,
		Summary: "Updated: Met " + in.HCPName,
	}
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *InteractionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordDeleted()
	return nil
}

// Reprocess reruns the pipeline on records saved with FallbackSummary and
// rewrites their name and summary. Notes and created_at are left untouched.
func (s *InteractionService) Reprocess(ctx context.Context) (int, error) {
	pending, err := s.store.ListBySummary(ctx, FallbackSummary)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list fallback records")
	}

	repaired := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		out, err := s.pipeline.Invoke(ctx, workflow.State{Text: rec.Notes})
		if err != nil {
			slog.Warn("reprocess: pipeline failed", "id", rec.ID, "error", err)
			continue
		}
		rec.HCPName = out.HCPName
		rec.Summary = out.Summary
		if err := s.store.Update(ctx, &rec); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted since the listing.
				continue
			}
			return repaired, errors.Wrapf(err, "failed to save reprocessed record %d", rec.ID)
		}
		repaired++
	}
	s.metrics.RecordReprocessed(repaired)
	return repaired, nil
}

// Ping reports whether the backing store is reachable.
func (s *InteractionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
