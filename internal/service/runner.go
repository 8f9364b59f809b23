package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jimulabs/mailblast/internal/campaigns"
	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/jimulabs/mailblast/internal/observability"
	"github.com/jimulabs/mailblast/internal/repository"
	"go.uber.org/zap"
)

// ErrRunAborted is returned when the operator declines the confirmation
// prompt. No ledger row has been written at that point.
var ErrRunAborted = errors.New("run aborted by operator")

// ConfirmFunc asks the operator to approve a run against the named campaign
// and recipient count before anything is dispatched.
type ConfirmFunc func(campaign domain.Campaign, recipientCount int) (bool, error)

// RunConfig narrows a run to a cohort and sets the envelope sender.
type RunConfig struct {
	From   string
	Filter repository.SubscriberFilter
	Keep   Predicate
}

// CampaignRunner is the one parameterized entry point for delivering any
// campaign definition: get-or-create the campaign row, compute the eligible
// set, confirm, dispatch, summarize.
type CampaignRunner struct {
	campaigns  repository.CampaignRepository
	deliveries repository.DeliveryRepository
	selector   *RecipientSelector
	dispatcher *BatchDispatcher
	confirm    ConfirmFunc
	logger     *zap.Logger
}

func NewCampaignRunner(
	campaignRepo repository.CampaignRepository,
	deliveries repository.DeliveryRepository,
	selector *RecipientSelector,
	dispatcher *BatchDispatcher,
	confirm ConfirmFunc,
	logger *zap.Logger,
) (*CampaignRunner, error) {
	if campaignRepo == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("recipient selector is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("batch dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignRunner{
		campaigns:  campaignRepo,
		deliveries: deliveries,
		selector:   selector,
		dispatcher: dispatcher,
		confirm:    confirm,
		logger:     logger,
	}, nil
}

func (r *CampaignRunner) Run(
	ctx context.Context,
	def campaigns.Definition,
	cfg RunConfig,
	progress ProgressFunc,
) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.WithRunID(ctx, uuid.NewString())
	logger := observability.WithContextLogger(r.logger, ctx)

	campaign := &domain.Campaign{
		Name:            def.Name,
		SubjectTemplate: def.SubjectTemplate,
		BodyTemplate:    def.Body(),
	}
	created, err := r.campaigns.GetOrCreate(ctx, campaign)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get or create campaign: %w", err)
	}

	recipients, err := r.selector.EligibleRecipients(ctx, campaign.ID, cfg.Filter, cfg.Keep)
	if err != nil {
		return Stats{}, err
	}

	logger.Info("delivering campaign",
		zap.String("campaignId", campaign.ID),
		zap.String("campaign", campaign.Name),
		zap.Bool("created", created),
		zap.Int("recipients", len(recipients)),
	)

	if r.confirm != nil {
		ok, err := r.confirm(*campaign, len(recipients))
		if err != nil {
			return Stats{}, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return Stats{}, ErrRunAborted
		}
	}

	stats, err := r.dispatcher.Run(ctx, *campaign, recipients, cfg.From, progress)
	if err != nil {
		return stats, err
	}

	r.logSummary(ctx, logger, campaign.ID, stats)
	return stats, nil
}

func (r *CampaignRunner) logSummary(ctx context.Context, logger *zap.Logger, campaignID string, stats Stats) {
	fields := []zap.Field{
		zap.String("campaignId", campaignID),
		zap.Int("sent", stats.Sent),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	}

	counts, err := r.deliveries.CountByStatus(ctx, campaignID)
	if err != nil {
		logger.Warn("failed to read ledger summary", zap.Error(err))
	} else {
		for _, c := range counts {
			fields = append(fields, zap.Int("ledger_"+c.Status.String(), c.Count))
		}
	}

	logger.Info("campaign run finished", fields...)
}
