package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/client"
	"learninghouse/console/internal/ids"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/queue"
	"learninghouse/console/internal/storage"
)

// Brains is the part of the learninghouse API jobs run against.
type Brains interface {
	RetrainBrain(ctx context.Context, name string) (models.BrainInfo, error)
	Predict(ctx context.Context, name string, data models.SensorsData) (models.PredictionResult, error)
}

type Archive interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type RunRecorder interface {
	Record(ctx context.Context, run models.JobRun) error
}

// Processor executes queued brain jobs. Archive and recorder are optional.
type Processor struct {
	logger   zerolog.Logger
	secret   string
	brains   Brains
	archive  Archive
	recorder RunRecorder
	now      func() time.Time
}

type Option func(*Processor)

func WithArchive(archive Archive) Option {
	return func(p *Processor) { p.archive = archive }
}

func WithRecorder(recorder RunRecorder) Option {
	return func(p *Processor) { p.recorder = recorder }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(logger zerolog.Logger, secret string, brains Brains, opts ...Option) *Processor {
	p := &Processor{
		logger: logger,
		secret: secret,
		brains: brains,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	job, err := queue.DecodeJob(msg, p.secret)
	if err != nil {
		return err
	}

	log := p.logger.With().
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Str("brain", job.Brain).
		Logger()

	run := models.JobRun{
		ID:          ids.New(),
		JobID:       job.ID,
		Type:        job.Type,
		Brain:       job.Brain,
		RequestedBy: job.RequestedBy,
		StartedAt:   p.now().UTC(),
	}

	result, err := p.execute(ctx, job, &run)
	run.FinishedAt = p.now().UTC()
	if err != nil {
		run.Status = models.JobStatusFailed
		run.Error = err.Error()
		log.Warn().Err(err).Msg("job failed")
	} else {
		run.Status = models.JobStatusSucceeded
		if p.archive != nil {
			key := storage.ResultKey(job.Brain, string(job.Type), job.ID)
			if archiveErr := p.archive.PutJSON(ctx, key, result); archiveErr != nil {
				log.Error().Err(archiveErr).Msg("archive job result failed")
			} else {
				run.ArchiveKey = key
			}
		}
		log.Info().Dur("took", run.FinishedAt.Sub(run.StartedAt)).Msg("job succeeded")
	}

	if p.recorder != nil {
		if recordErr := p.recorder.Record(ctx, run); recordErr != nil {
			log.Error().Err(recordErr).Msg("record job run failed")
		}
	}

	if err != nil && isTransient(err) {
		return err
	}
	return nil
}

func (p *Processor) execute(ctx context.Context, job models.Job, run *models.JobRun) (any, error) {
	switch job.Type {
	case models.JobTypeTraining:
		info, err := p.brains.RetrainBrain(ctx, job.Brain)
		if err != nil {
			return nil, err
		}
		run.Score = &info.Score
		run.DataSize = &info.TrainingDataSize
		return info, nil
	case models.JobTypePrediction:
		result, err := p.brains.Predict(ctx, job.Brain, job.SensorsData)
		if err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: unknown job type %q", queue.ErrMalformedMessage, job.Type)
	}
}

// isTransient reports service failures worth a redelivery: no answer at all
// or a server side error. Everything else fails the job for good.
func isTransient(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 0 || apiErr.Status >= http.StatusInternalServerError
}
