package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"EventsDigest/internal/categorize"
	"EventsDigest/internal/config"
	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
	"EventsDigest/internal/infrastructure/apify"
	"EventsDigest/internal/infrastructure/linkedin"
	"EventsDigest/internal/infrastructure/llm"
	"EventsDigest/internal/infrastructure/scheduler"
	"EventsDigest/internal/infrastructure/scraper"
	"EventsDigest/internal/infrastructure/telegram"
	"EventsDigest/internal/logging"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/scanner"
	"EventsDigest/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	digest   *usecase.Pipeline
	reminder *usecase.Pipeline
}

// New builds the digest and reminder pipelines from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	rec := metrics.New()
	loc := cfg.Scheduler.Location()

	policy, err := filter.NewPolicy(cfg.Filters.Relevance.Policy, cfg.Filters.Relevance.Strong,
		cfg.Filters.Relevance.Include, cfg.Filters.Relevance.Exclude)
	if err != nil {
		return nil, fmt.Errorf("relevance policy: %w", err)
	}

	collector := apify.NewClient(cfg.Apify.BaseURL, cfg.Apify.Token, baseLogger.With("component", "apify"))

	registry := scanner.NewRegistry()
	registry.Register(scraper.NewMeetupScanner(collector, scraper.MeetupOptions{
		ActorID:      cfg.Apify.MeetupActorID,
		Timeout:      cfg.Apify.Timeout,
		Input:        cfg.Apify.MeetupInput,
		MinAttendees: cfg.Filters.MinAttendees,
		PhysicalOnly: true,
	}, baseLogger.With("component", "scanner.meetup"), rec))
	registry.Register(scraper.NewLumaScanner(collector, scraper.LumaOptions{
		ActorID:      cfg.Apify.LumaActorID,
		Timeout:      cfg.Apify.Timeout,
		MaxResults:   cfg.Apify.LumaMaxItems,
		Query:        cfg.Apify.LumaQuery,
		MinAttendees: -1,
	}, baseLogger.With("component", "scanner.luma"), rec))

	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		src := domain.Source(name)
		if !src.Valid() || !slices.Contains(registry.Names(), src) {
			return nil, fmt.Errorf("unknown source %q, registered: %v", name, registry.Names())
		}
		sources = append(sources, src)
	}

	sourceLog := baseLogger.With("component", "source")
	digestSource := scraper.NewStrategySource(registry, sources, cfg.Filters.DaysAhead, sourceLog, rec)
	reminderSource := scraper.NewStrategySource(registry, []domain.Source{domain.SourceMeetup}, cfg.Filters.DaysAhead, sourceLog, rec)

	categorizer := categorize.New(
		llm.NewChatGPTClient(cfg.OpenAI, cfg.LLM),
		categorize.Config{
			BatchSize:            cfg.LLM.BatchSize,
			BatchDelay:           cfg.Delays.BetweenLLMBatches,
			MaxDescriptionLength: cfg.LLM.MaxDescriptionLength,
		},
		baseLogger.With("component", "categorizer"),
		rec,
	)

	notifier := telegram.NewNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.MessageInterval)

	cities := make([]domain.City, len(cfg.Cities))
	for i, c := range cfg.Cities {
		cities[i] = domain.City{Name: c.Name, Country: c.Country, ChatID: c.ChatID}
	}

	deps := usecase.PipelineDeps{
		Source:        digestSource,
		Policy:        policy,
		Categorizer:   categorizer,
		Notifier:      notifier,
		Metrics:       rec,
		Logger:        baseLogger.With("component", "pipeline"),
		Location:      loc,
		Cities:        cities,
		DaysAhead:     cfg.Filters.DaysAhead,
		MaxLength:     cfg.Chunking.MaxLength,
		BetweenCities: cfg.Delays.BetweenCities,
	}
	if cfg.LinkedIn.Enabled() {
		deps.Publisher = linkedin.NewPublisher(cfg.LinkedIn.BaseURL, cfg.LinkedIn.AccessToken,
			cfg.LinkedIn.AuthorURN, cfg.LinkedIn.APIVersion, baseLogger.With("component", "linkedin"))
	}
	digestPipeline := usecase.NewPipeline(deps)

	deps.Source = reminderSource
	deps.Publisher = nil
	deps.Logger = baseLogger.With("component", "reminder")
	reminderPipeline := usecase.NewPipeline(deps)

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		metrics:  rec,
		digest:   digestPipeline,
		reminder: reminderPipeline,
	}, nil
}

// RunDigest performs a single digest run for every configured city.
func (a *Application) RunDigest(ctx context.Context) error {
	return a.digest.RunDigest(ctx, a.now())
}

// RunToday performs a single today-reminder run for every configured city.
func (a *Application) RunToday(ctx context.Context) error {
	return a.reminder.RunToday(ctx, a.now())
}

// DigestJob exposes the digest run for scheduling.
func (a *Application) DigestJob() usecase.Job { return a.digest.RunDigest }

// TodayJob exposes the reminder run for scheduling.
func (a *Application) TodayJob() usecase.Job { return a.reminder.RunToday }

// Serve runs job on the configured cron expression until ctx is cancelled,
// exposing /metrics when metrics.address is set.
func (a *Application) Serve(ctx context.Context, job usecase.Job) error {
	loc := a.cfg.Scheduler.Location()
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, loc, a.logger.With("component", "scheduler"))
	sched := usecase.NewScheduler(driver, job, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	var srv *http.Server
	serveErr := make(chan error, 1)
	if addr := a.cfg.Metrics.Address; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", a.metrics.Handler())
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		runErr = fmt.Errorf("metrics server: %w", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics shutdown", "error", err)
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown", "error", err)
	}
	return runErr
}

func (a *Application) now() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}
