package backup

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"adminctl/logger"
)

type Scheduler struct {
	scheduler gocron.Scheduler
}

// ValidateExpression checks a five field cron expression.
func ValidateExpression(value string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(value); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{scheduler: s}, nil
}

// Schedule runs task on expression. A run that is still going when the
// next one is due delays it rather than overlapping.
func (s *Scheduler) Schedule(ctx context.Context, name, expression string, task func(ctx context.Context) error) error {
	if err := ValidateExpression(expression); err != nil {
		return err
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(expression, false),
		gocron.NewTask(func() {
			logger.Info("running scheduled job", zap.String("job", name))
			if err := task(ctx); err != nil {
				logger.Error("job returned error", zap.String("job", name), zap.Error(err))
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.scheduler.Start()
	<-ctx.Done()
	return s.scheduler.Shutdown()
}
