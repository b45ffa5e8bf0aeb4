package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CoveredStop/internal/advisor"
	"CoveredStop/internal/notifier"
)

// Sender delivers a message to the configured chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Scheduler runs the daily stop-loss report and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Advisor  *advisor.Advisor
	Notifier Sender
	Defaults advisor.Request
	Logger   *zap.Logger
	Ctx      context.Context
	Timeout  time.Duration
}

// NewScheduler creates a new Scheduler. defaults supplies the symbol and the
// parameters used by the daily task and by commands that omit them.
func NewScheduler(ctx context.Context, adv *advisor.Advisor, sender Sender, defaults advisor.Request, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Advisor:  adv,
		Notifier: sender,
		Defaults: defaults,
		Logger:   logger,
		Ctx:      ctx,
		Timeout:  time.Minute,
	}
}

// Register adds the daily report task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunDailyNow executes the daily task immediately.
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.Logger.Info("running daily stop-loss report", zap.String("symbol", s.Defaults.Symbol))
	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()

	rep, err := s.Advisor.Advise(ctx, s.Defaults)
	if err != nil {
		s.Logger.Error("daily report failed", zap.Error(err))
		s.trySend(s.Ctx, notifier.FormatError(s.Defaults.Symbol, err))
		return
	}
	s.trySend(s.Ctx, notifier.FormatTelegramReport(rep))
}

// HandleCommand processes a user command and returns a reply.
//
//	/stop SYMBOL [max_loss_pct] [atr_multiplier] [weeks]
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage()
	}
	switch strings.ToLower(fields[0]) {
	case "/stop", "/stoploss":
		req, err := s.parseStop(fields[1:])
		if err != nil {
			return notifier.FormatError("/stop", err)
		}
		ctx, cancel := context.WithTimeout(ctx, s.Timeout)
		defer cancel()
		rep, err := s.Advisor.Advise(ctx, req)
		if err != nil {
			return notifier.FormatError(req.Symbol, err)
		}
		return notifier.FormatTelegramReport(rep)
	default:
		return usage()
	}
}

func (s *Scheduler) parseStop(args []string) (advisor.Request, error) {
	req := s.Defaults
	if len(args) > 0 {
		req.Symbol = args[0]
	}
	if len(args) > 1 {
		v, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
		if err != nil {
			return req, fmt.Errorf("max loss %q is not a number", args[1])
		}
		req.MaxLossPct = v
	}
	if len(args) > 2 {
		v, err := strconv.ParseFloat(strings.TrimSuffix(args[2], "x"), 64)
		if err != nil {
			return req, fmt.Errorf("atr multiplier %q is not a number", args[2])
		}
		req.ATRMultiplier = v
	}
	if len(args) > 3 {
		v, err := strconv.Atoi(args[3])
		if err != nil {
			return req, fmt.Errorf("weeks %q is not an integer", args[3])
		}
		req.Weeks = v
	}
	if len(args) > 4 {
		return req, fmt.Errorf("too many arguments")
	}
	return req, nil
}

func usage() string {
	return "Usage:\n/stop SYMBOL [max_loss_pct 5-20] [atr_multiplier 1-3] [weeks 4-52]"
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
