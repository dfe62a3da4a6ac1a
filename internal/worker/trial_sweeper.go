package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
)

// TrialSweeper periodically expires trials that ended without conversion
type TrialSweeper struct {
	ctrl   subscription.Controller
	spec   string
	logger *logger.Logger
	now    func() time.Time
}

// NewTrialSweeper creates a new trial sweeper worker. spec is a cron
// expression or descriptor such as "@every 15m".
func NewTrialSweeper(ctrl subscription.Controller, spec string, log *logger.Logger) *TrialSweeper {
	return &TrialSweeper{
		ctrl:   ctrl,
		spec:   spec,
		logger: log,
		now:    time.Now,
	}
}

// Start runs one sweep, then sweeps on schedule until ctx is done
func (s *TrialSweeper) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(s.logger)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.logger))),
	)
	if _, err := c.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"schedule": s.spec,
	}).Info("Starting trial sweeper worker")

	s.Sweep(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Trial sweeper worker stopped")
	return nil
}

// Sweep expires every lapsed trial once
func (s *TrialSweeper) Sweep(ctx context.Context) {
	n, err := s.ctrl.ExpireTrials(ctx, s.now())
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"expired": n,
		}).ErrorWithErr(err, "Trial sweep failed")
		return
	}
	if n > 0 {
		s.logger.WithFields(map[string]interface{}{
			"expired": n,
		}).Info("Expired lapsed trials")
	}
}
