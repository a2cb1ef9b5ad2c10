// Package worker runs the background expiry sweep on an asynq server. The
// sweep is observability only: lapsed holds are already treated as
// available by the reservation paths, so the worker just keeps stored
// statuses and logs close to reality.
package worker

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"github.com/fitgrid/studio-reservation/internal/engine"
)

// TypeExpirySweep is the task type for the periodic expiry sweep.
const TypeExpirySweep = "sweep:expired"

// StartSweeper runs an asynq server handling the sweep task and a scheduler
// enqueueing it every minute. Blocks until the server stops, so callers run
// it in a goroutine.
func StartSweeper(redisAddr string, eng *engine.Engine) error {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, func(ctx context.Context, t *asynq.Task) error {
		return eng.SweepExpired(ctx)
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("*/1 * * * *", asynq.NewTask(TypeExpirySweep, nil)); err != nil {
		return err
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("sweeper: scheduler stopped: %v", err)
		}
	}()

	return srv.Run(mux)
}
