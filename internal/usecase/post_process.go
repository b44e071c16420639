package usecase

import (
	"context"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/minhngoc274/chatcore/pkg/util"
)

const postProcessTimeout = 10 * time.Second

// postProcess runs fn detached from the request. Follow-up work such as
// fanout, cache upkeep and event publishing never delays or fails the
// operation that triggered it.
func postProcess(ctx context.Context, fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := util.NewTimeoutContext(ctx, postProcessTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(ctx, "PANIC RECOVER: %+v", r)
			}
		}()
		fn(ctx)
	}()
}
