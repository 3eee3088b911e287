package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/config"
	"learninghouse/console/internal/models"
)

type SessionWatcher interface {
	Tokens(ctx context.Context) (*models.TokenPair, error)
}

type ModeSource interface {
	Mode(ctx context.Context) (models.ServiceMode, error)
}

type ModeStore interface {
	Set(ctx context.Context, mode models.ServiceMode) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, jobType models.JobType, brain string, data models.SensorsData, requestedBy string) (models.Job, error)
}

// Scheduler runs the console's periodic work. Each dependency is optional;
// jobs without one are not registered.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.JobsConfig
	log      zerolog.Logger
	sessions SessionWatcher
	modes    ModeSource
	modeSink ModeStore
	queue    Enqueuer

	pollMu      sync.Mutex
	lastMode    models.ServiceMode
	pollFailing bool
}

type Option func(*Scheduler)

func WithSessionWatch(sessions SessionWatcher) Option {
	return func(s *Scheduler) { s.sessions = sessions }
}

func WithModePoll(source ModeSource, sink ModeStore) Option {
	return func(s *Scheduler) {
		s.modes = source
		s.modeSink = sink
	}
}

func WithQueue(queue Enqueuer) Option {
	return func(s *Scheduler) { s.queue = queue }
}

func NewScheduler(cfg config.JobsConfig, log zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		cfg:  cfg,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	if s.sessions != nil && s.cfg.SessionWatch != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionWatch, s.watchSession); err != nil {
			return err
		}
	}
	if s.modes != nil && s.modeSink != nil && s.cfg.ModePoll != "" {
		if _, err := s.cron.AddFunc(s.cfg.ModePoll, s.pollMode); err != nil {
			return err
		}
	}
	if s.queue != nil {
		for _, schedule := range s.cfg.Retrain {
			brain := schedule.Brain
			if _, err := s.cron.AddFunc(schedule.Spec, func() { s.enqueueRetrain(brain) }); err != nil {
				return err
			}
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

// watchSession loads the token pair, which ends an admin session whose
// refresh token ran out even if nobody is using the console.
func (s *Scheduler) watchSession() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.sessions.Tokens(ctx); err != nil {
		s.log.Error().Err(err).Msg("session watch failed")
	}
}

// pollMode caches the service mode, unknown while the service is
// unreachable. Only transitions are logged above debug.
func (s *Scheduler) pollMode() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	mode, err := s.modes.Mode(ctx)
	switch {
	case err != nil:
		mode = models.ServiceModeUnknown
		if s.pollFailing {
			s.log.Debug().Err(err).Msg("mode poll failed")
		} else {
			s.log.Warn().Err(err).Msg("service unreachable, mode unknown")
		}
		s.pollFailing = true
	case s.pollFailing:
		s.log.Info().Str("mode", string(mode)).Msg("service reachable again")
		s.pollFailing = false
	case mode != s.lastMode:
		s.log.Info().Str("mode", string(mode)).Msg("service mode changed")
	}
	s.lastMode = mode

	if err := s.modeSink.Set(ctx, mode); err != nil {
		s.log.Error().Err(err).Msg("cache service mode failed")
	}
}

func (s *Scheduler) enqueueRetrain(brain string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := s.queue.Enqueue(ctx, models.JobTypeTraining, brain, nil, "scheduler")
	if err != nil {
		s.log.Error().Err(err).Str("brain", brain).Msg("enqueue retrain failed")
		return
	}
	s.log.Info().Str("brain", brain).Str("job_id", job.ID).Msg("retrain enqueued")
}
