package job

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const sweepTimeout = time.Minute

type CartAbandoner interface {
	AbandonIdleCarts(ctx context.Context, idle time.Duration) (int64, error)
}

// Sweeper periodically marks idle carts as abandoned.
type Sweeper struct {
	sched *cron.Cron
	carts CartAbandoner
	idle  time.Duration
	log   *zap.Logger
}

func NewSweeper(carts CartAbandoner, schedule string, idle time.Duration, log *zap.Logger) (*Sweeper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sweeper{
		sched: cron.New(cron.WithParser(cronParser)),
		carts: carts,
		idle:  idle,
		log:   log.Named("sweeper"),
	}
	if _, err := s.sched.AddFunc(schedule, s.Run); err != nil {
		return nil, errors.Wrapf(err, "schedule cart sweeper %q", schedule)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.sched.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.sched.Stop().Done()
}

func (s *Sweeper) Run() {
	defer func() {
		if err := recover(); err != nil {
			s.log.Error("cart sweep panicked", zap.Any("panic", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.carts.AbandonIdleCarts(ctx, s.idle)
	if err != nil {
		s.log.Error("cart sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("abandoned idle carts", zap.Int64("count", n), zap.Duration("idle", s.idle))
	}
}
