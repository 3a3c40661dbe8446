package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"TragedyWatch/internal/classifier"
	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/ports"
)

var (
	// ErrNoSource is returned when the pipeline has nothing to fetch from.
	ErrNoSource = errors.New("pipeline source is not configured")
	// ErrNoRepository is returned when the pipeline has nowhere to persist.
	ErrNoRepository = errors.New("pipeline repository is not configured")
	// ErrPollPanic wraps a panic recovered inside a poll routine.
	ErrPollPanic = errors.New("poll routine panicked")
)

// PipelineDeps wires all driven adapters into the poll routine.
type PipelineDeps struct {
	Source     ports.HeadlineSource
	Classifier ports.Classifier
	Repository ports.ArticleRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Pipeline implements one fetch → classify → persist → notify pass.
type Pipeline struct {
	source     ports.HeadlineSource
	classifier ports.Classifier
	repository ports.ArticleRepository
	notifier   ports.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the poll routine. A nil classifier uses the default
// keyword list.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:     deps.Source,
		classifier: deps.Classifier,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if p.classifier == nil {
		p.classifier = classifier.New(nil)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Poll runs the routine once. Store and notify failures are absorbed per
// headline and counted in the report; only a failed fetch, a missing
// collaborator or a recovered panic is returned as an error.
func (p *Pipeline) Poll(ctx context.Context, trigger domain.Trigger) (report domain.PollReport, err error) {
	report = domain.PollReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Stage:     domain.StageNone,
		StartedAt: p.now(),
	}
	log := p.logger.With("run_id", report.RunID, "trigger", string(trigger))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPollPanic, r)
		}
		report.FinishedAt = p.now()
		if err != nil {
			log.Error("poll failed", "error", err, "duration", report.Duration())
			return
		}
		log.Info("poll finished",
			"stage", string(report.Stage),
			"fetched", report.Fetched,
			"matched", report.Matched,
			"created", report.Created,
			"duplicates", report.Duplicates,
			"store_failures", report.StoreFailures,
			"notify_failures", report.NotifyFailures,
			"duration", report.Duration(),
		)
	}()

	if p.source == nil {
		return report, ErrNoSource
	}
	if p.repository == nil {
		return report, ErrNoRepository
	}

	log.Debug("poll started")
	result, err := p.source.FetchHeadlines(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch headlines: %w", err)
	}
	report.Stage = result.Stage
	report.Fetched = len(result.Headlines)

	for _, headline := range result.Headlines {
		p.process(ctx, log, headline, &report)
	}

	return report, nil
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, headline domain.Headline, report *domain.PollReport) {
	if !p.classifier.IsTragedy(headline.Title) {
		return
	}
	report.Matched++

	saved, err := p.repository.SaveIfNew(ctx, headline.Title, headline.URL)
	if err != nil {
		report.StoreFailures++
		log.Warn("store failed, skipping headline", "url", headline.URL, "site", headline.Source, "error", err)
		return
	}
	if !saved.Created {
		report.Duplicates++
		log.Debug("already stored", "url", headline.URL)
		return
	}
	report.Created++
	log.Info("tragedy stored", "id", saved.Article.ID, "title", headline.Title, "url", headline.URL, "site", headline.Source)

	if p.notifier == nil {
		return
	}
	deliveryID, err := p.notifier.Send(ctx, headline.Title, headline.URL)
	if err != nil {
		report.NotifyFailures++
		log.Warn("notification failed", "url", headline.URL, "error", err)
		return
	}
	log.Debug("notification sent", "url", headline.URL, "delivery_id", deliveryID)
}
