package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/harjot20022001/bug-tracker/config"
	"github.com/harjot20022001/bug-tracker/internal/logging"
	"github.com/harjot20022001/bug-tracker/internal/mq"
	"github.com/harjot20022001/bug-tracker/internal/notify"
)

// RunWorker consumes notification jobs until ctx is done. It is used when the
// API runs without the in-process worker.
func RunWorker(ctx context.Context, cfg config.Config, log logging.Logger) error {
	if log == nil {
		log = logging.Discard()
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		return fmt.Errorf("open message queue: %w", err)
	}
	defer queue.Close()

	if queue.Name() == "memory" {
		log.Warn(ctx, "standalone worker on the memory queue only sees jobs published by this process")
	}

	sender, err := NewSender(cfg, log)
	if err != nil {
		return err
	}

	worker := notify.NewWorker(queue, cfg.Notify.Channel, sender, log)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info(context.WithoutCancel(ctx), "notification worker stopped")
	return nil
}
