package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/jimulabs/mailblast/internal/campaigns"
	"github.com/jimulabs/mailblast/internal/config"
	"github.com/jimulabs/mailblast/internal/domain"
	"github.com/jimulabs/mailblast/internal/infra/postgresql"
	"github.com/jimulabs/mailblast/internal/infra/postgresql/migrations"
	infraredis "github.com/jimulabs/mailblast/internal/infra/redis"
	"github.com/jimulabs/mailblast/internal/observability"
	"github.com/jimulabs/mailblast/internal/ratelimit"
	"github.com/jimulabs/mailblast/internal/repository"
	"github.com/jimulabs/mailblast/internal/sender"
	"github.com/jimulabs/mailblast/internal/service"
	"go.uber.org/zap"
)

func main() {
	campaignName := flag.String("campaign", "", "name of the campaign to deliver")
	dryRun := flag.Bool("dry-run", false, "log envelopes instead of sending")
	listCampaigns := flag.Bool("list", false, "list registered campaigns and exit")
	emailDomain := flag.String("email-domain", "", "restrict recipients to an email domain")
	flag.Parse()

	if *listCampaigns {
		for _, name := range campaigns.Names() {
			fmt.Println(name)
		}
		return
	}

	def, ok := campaigns.ByName(*campaignName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown campaign %q; use -list to see registered campaigns\n", *campaignName)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	limiter, err := buildLimiter(cfg)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	snd, err := buildSender(cfg, *dryRun, logger)
	if err != nil {
		logger.Fatal("sender initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	if cfg.MetricsPort > 0 {
		go serveMetrics(cfg.MetricsPort, metrics, logger)
	}

	deliveries := repository.NewGormDeliveryRepo(db)
	selector, err := service.NewRecipientSelector(repository.NewGormSubscriberRepo(db), deliveries, logger)
	if err != nil {
		logger.Fatal("selector initialization failed", zap.Error(err))
	}

	dispatcher, err := service.NewBatchDispatcher(deliveries, snd, limiter, cfg.BatchSize, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	runner, err := service.NewCampaignRunner(
		repository.NewGormCampaignRepo(db),
		deliveries,
		selector,
		dispatcher,
		confirmOnStdin(os.Stdin, os.Stdout),
		logger,
	)
	if err != nil {
		logger.Fatal("runner initialization failed", zap.Error(err))
	}

	runCfg := service.RunConfig{
		From:   cfg.FromAddress(),
		Filter: repository.SubscriberFilter{EmailDomain: *emailDomain},
	}

	stats, err := runner.Run(context.Background(), def, runCfg, printProgress)
	if errors.Is(err, service.ErrRunAborted) {
		fmt.Println("Aborted")
		return
	}
	if err != nil {
		logger.Error("campaign run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "campaign run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %d sent, %d failed, %d skipped\n", stats.Sent, stats.Failed, stats.Skipped)
}

func buildLimiter(cfg *config.Config) (ratelimit.RateLimiter, error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewTokenBucketLimiter(cfg.RateLimitPerSec), nil
	}

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
}

func buildSender(cfg *config.Config, dryRun bool, logger *zap.Logger) (sender.Sender, error) {
	if dryRun {
		return sender.NewDryRunSender(logger), nil
	}
	if cfg.WebhookURL != "" {
		return sender.NewWebhookSender(cfg.WebhookURL)
	}
	return sender.NewResendSender(cfg.ResendAPIKey)
}

// confirmOnStdin implements the operator confirmation gate: the run proceeds
// only on an explicit "y".
func confirmOnStdin(in io.Reader, out io.Writer) service.ConfirmFunc {
	return func(campaign domain.Campaign, recipientCount int) (bool, error) {
		fmt.Fprintf(out, "Delivering %q to %d subscribers\n", campaign.Name, recipientCount)
		fmt.Fprint(out, "Press Y to continue: ")

		reader := bufio.NewReader(in)
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}

		return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
	}
}

func printProgress(completed, total, percent int) {
	fmt.Printf("%d%% done (%d/%d batches)\n", percent, completed, total)
}

func serveMetrics(port int, metrics *observability.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	addr := fmt.Sprintf(":%d", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
