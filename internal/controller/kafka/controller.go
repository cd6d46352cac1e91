// Package kafka drives the transcode worker pool off the task topic.
// Each task gets a bounded number of full handler runs; exhaustion
// dead-letters the record to failed and the offset is committed either way.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	segkafka "github.com/segmentio/kafka-go"

	kafkapc "snapvault/internal/infrastructure/kafka"
	"snapvault/internal/usecase"
	"snapvault/pkg/logger"
	"snapvault/pkg/types/errs"
)

type TranscodeController struct {
	trc    usecase.TranscoderUseCase
	ec     *kafkapc.EventConsumer
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	retryInterval  time.Duration
	maxAttempts    int

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	trc usecase.TranscoderUseCase,
	ec *kafkapc.EventConsumer,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	retryInterval time.Duration,
	maxAttempts int,
	workers int,
) *TranscodeController {
	return &TranscodeController{
		trc:            trc,
		ec:             ec,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		retryInterval:  retryInterval,
		maxAttempts:    maxAttempts,
		workers:        workers,
	}
}

func (c *TranscodeController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("TranscodeController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan segkafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "TranscodeController - Start - c.ec.ReadEvent")
					}
					continue
				}

				select {
				case tasks <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// handle runs the full transcode handler with bounded attempts. Fatal
// outcomes (missing record, missing temp object, undecodable bytes) are not
// retried; anything else is treated as transient storage failure.
func (c *TranscodeController) handle(ctx context.Context, msg segkafka.Message) {
	var task TranscodeTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		// poison pill: nothing to retry, nothing to dead-letter against
		c.logger.Error(err, "TranscodeController - handle - json.Unmarshal")

		return
	}

	attempt := func() error {
		err := c.trc.Process(ctx, task.ImageID, task.UploadKey)
		if err == nil {
			return nil
		}

		if errors.Is(err, errs.ErrRecordNotFound) ||
			errors.Is(err, errs.ErrObjectNotFound) ||
			errors.Is(err, errs.ErrImageDecode) {
			return backoff.Permanent(err)
		}

		return err
	}

	// a misconfigured bound must never underflow into unbounded retries
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), uint64(attempts-1)),
		ctx,
	)

	err := backoff.Retry(attempt, policy)
	if err == nil {
		return
	}

	c.logger.Error(err, "TranscodeController - handle - attempts exhausted")

	if abandonErr := c.trc.Abandon(ctx, task.ImageID); abandonErr != nil {
		c.logger.Error(abandonErr, "TranscodeController - handle - c.trc.Abandon")
	}
}

func (c *TranscodeController) worker(tasks <-chan segkafka.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "TranscodeController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			c.handle(processCtx, msg)
			processCancel()

			// commit on any terminal outcome - success, dead-letter, or
			// poison pill - so the task is not redelivered forever
			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err := c.ec.CommitEvent(commitCtx, msg)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "TranscodeController - worker - c.ec.CommitEvent")
			}
		}()
	}
}

func (c *TranscodeController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.ec.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
