package usecase

import (
	"context"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/minhngoc274/chatcore/internal/config"
)

// CallSweeper periodically expires unanswered calls to missed.
type CallSweeper struct {
	callUC   *CallUseCase
	interval time.Duration
	done     chan struct{}
}

func NewCallSweeper(callUC *CallUseCase, cfg *config.Config) *CallSweeper {
	return &CallSweeper{
		callUC:   callUC,
		interval: cfg.Call.SweepInterval,
		done:     make(chan struct{}),
	}
}

func (s *CallSweeper) Start(ctx context.Context) {
	log.Infow(ctx, "Starting call expiry sweep", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.callUC.ExpireStaleCalls(ctx); err != nil {
				log.Errorw(ctx, "Call expiry sweep failed", "error", err)
			}
		}
	}
}

func (s *CallSweeper) Stop(ctx context.Context) {
	log.Infow(ctx, "Stopping call expiry sweep")
	close(s.done)
}
