package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/jimulabs/mailblast/internal/observability"
	"github.com/jimulabs/mailblast/internal/ratelimit"
	"github.com/jimulabs/mailblast/internal/render"
	"github.com/jimulabs/mailblast/internal/repository"
	"github.com/jimulabs/mailblast/internal/sender"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize  = 10
	maxErrorDetailLen = 500
)

// ProgressFunc receives a progress signal after each completed batch.
type ProgressFunc func(completedBatches, totalBatches, percent int)

// Stats summarizes one dispatcher run.
type Stats struct {
	Sent    int
	Failed  int
	Skipped int
}

// BatchDispatcher delivers a fixed recipient sequence in contiguous batches.
// Members of a batch are attempted concurrently; the limiter paces individual
// sends so aggregate throughput stays under the transport's limit regardless
// of batch size.
type BatchDispatcher struct {
	deliveries repository.DeliveryRepository
	sender     sender.Sender
	limiter    ratelimit.RateLimiter
	logger     *zap.Logger
	metrics    *observability.Metrics
	batchSize  int
	now        func() time.Time
}

func NewBatchDispatcher(
	deliveries repository.DeliveryRepository,
	snd sender.Sender,
	limiter ratelimit.RateLimiter,
	batchSize int,
	logger *zap.Logger,
) (*BatchDispatcher, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if snd == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchDispatcher{
		deliveries: deliveries,
		sender:     snd,
		limiter:    limiter,
		logger:     logger,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

func (d *BatchDispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Run processes recipients batch by batch. A failed batch is logged and does
// not stop the run; only context cancellation terminates it early. The
// returned Stats cover everything attempted before return.
func (d *BatchDispatcher) Run(
	ctx context.Context,
	campaign domain.Campaign,
	recipients []domain.Subscriber,
	from string,
	progress ProgressFunc,
) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(d.logger, ctx)
	counters := &runCounters{}

	batches := partitionBatches(recipients, d.batchSize)
	totalBatches := len(batches)

	for i, batch := range batches {
		if err := d.dispatchBatch(ctx, campaign, batch, from, counters); err != nil {
			if ctx.Err() != nil {
				return counters.stats(), ctx.Err()
			}
			// Sibling deliveries already ran to completion or were cut off by
			// the failed store call; the next batch still gets its chance.
			logger.Error("batch failed",
				zap.String("campaignId", campaign.ID),
				zap.Int("batch", i+1),
				zap.Error(err),
			)
		}

		d.metrics.IncBatch(campaign.Name)
		if progress != nil {
			progress(i+1, totalBatches, ceilPercent(i+1, totalBatches))
		}
	}

	return counters.stats(), nil
}

func (d *BatchDispatcher) dispatchBatch(
	ctx context.Context,
	campaign domain.Campaign,
	batch []domain.Subscriber,
	from string,
	counters *runCounters,
) error {
	g, groupCtx := errgroup.WithContext(ctx)
	for _, subscriber := range batch {
		g.Go(func() error {
			return d.deliverOne(groupCtx, campaign, subscriber, from, counters)
		})
	}
	return g.Wait()
}

// deliverOne runs the per-recipient sequence: create a PENDING ledger row,
// render, send, then mark SENT or FAILED. Render and transport failures are
// recorded in the ledger and swallowed so siblings are unaffected; only store
// failures propagate and abort the batch's remaining work.
func (d *BatchDispatcher) deliverOne(
	ctx context.Context,
	campaign domain.Campaign,
	subscriber domain.Subscriber,
	from string,
	counters *runCounters,
) error {
	logger := observability.WithContextLogger(d.logger, ctx)

	delivery, err := d.deliveries.CreatePending(ctx, campaign.ID, subscriber.ID)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateDelivery) {
			counters.skipped.Add(1)
			d.metrics.IncDeliverySkipped(campaign.Name)
			logger.Debug("delivery already in flight, skipping",
				zap.String("campaignId", campaign.ID),
				zap.String("subscriberId", subscriber.ID),
			)
			return nil
		}
		return fmt.Errorf("failed to create pending delivery: %w", err)
	}

	d.metrics.IncDispatchInFlight(campaign.Name)
	defer d.metrics.DecDispatchInFlight(campaign.Name)

	subject := render.Fill(campaign.SubjectTemplate, subscriber)
	text := render.Fill(campaign.BodyTemplate, subscriber)
	html, renderErr := render.MarkdownToHTML(text)
	if renderErr != nil {
		if err := d.markFailed(ctx, delivery.ID, renderErr); err != nil {
			return err
		}
		counters.failed.Add(1)
		d.metrics.IncDeliveryFailed(campaign.Name, "render_error")
		logger.Warn("render failed",
			zap.String("deliveryId", delivery.ID),
			zap.String("subscriberId", subscriber.ID),
			zap.Error(renderErr),
		)
		return nil
	}

	if err := d.limiter.Wait(ctx, campaign.ID); err != nil {
		// The PENDING row stays behind as a durable marker; a later run will
		// not double-send this pair.
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	sendStart := d.now()
	sendErr := d.sender.Send(ctx, &sender.Email{
		From:    from,
		To:      subscriber.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	d.metrics.ObserveSendDuration(campaign.Name, d.now().Sub(sendStart))

	if sendErr != nil {
		if err := d.markFailed(ctx, delivery.ID, sendErr); err != nil {
			return err
		}
		counters.failed.Add(1)
		reason := "transport_permanent"
		if sender.IsTransient(sendErr) {
			reason = "transport_transient"
		}
		d.metrics.IncDeliveryFailed(campaign.Name, reason)
		logger.Warn("send failed",
			zap.String("deliveryId", delivery.ID),
			zap.String("subscriberId", subscriber.ID),
			zap.Error(sendErr),
		)
		return nil
	}

	if err := d.deliveries.MarkSent(ctx, delivery.ID); err != nil {
		return fmt.Errorf("failed to mark delivery as sent: %w", err)
	}

	counters.sent.Add(1)
	d.metrics.IncDeliverySent(campaign.Name)
	return nil
}

func (d *BatchDispatcher) markFailed(ctx context.Context, deliveryID string, cause error) error {
	detail := cause.Error()
	if len(detail) > maxErrorDetailLen {
		detail = detail[:maxErrorDetailLen]
	}
	if err := d.deliveries.MarkFailed(ctx, deliveryID, detail); err != nil {
		return fmt.Errorf("failed to mark delivery as failed: %w", err)
	}
	return nil
}

// partitionBatches splits recipients into ceil(len/size) contiguous groups
// preserving the original order.
func partitionBatches(recipients []domain.Subscriber, size int) [][]domain.Subscriber {
	if size < 1 || len(recipients) == 0 {
		return nil
	}

	batches := make([][]domain.Subscriber, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batches = append(batches, recipients[start:end])
	}
	return batches
}

func ceilPercent(done, total int) int {
	if total < 1 {
		return 100
	}
	return (done*100 + total - 1) / total
}

type runCounters struct {
	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

func (c *runCounters) stats() Stats {
	return Stats{
		Sent:    int(c.sent.Load()),
		Failed:  int(c.failed.Load()),
		Skipped: int(c.skipped.Load()),
	}
}
