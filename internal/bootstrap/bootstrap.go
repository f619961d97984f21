// Package bootstrap owns the service lifecycle: configuration loading,
// dependency initialisation, HTTP serving and graceful shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"envisonet-server-go/internal/app/services"
	"envisonet-server-go/internal/core/providers/asr"
	"envisonet-server-go/internal/core/providers/llm"
	"envisonet-server-go/internal/core/providers/tts"
	"envisonet-server-go/internal/core/providers/vlllm"
	"envisonet-server-go/internal/domain/audio"
	"envisonet-server-go/internal/domain/eventbus"
	"envisonet-server-go/internal/domain/session"
	"envisonet-server-go/internal/domain/staging"
	platformconfig "envisonet-server-go/internal/platform/config"
	platformerrors "envisonet-server-go/internal/platform/errors"
	platformlogging "envisonet-server-go/internal/platform/logging"
	platformstorage "envisonet-server-go/internal/platform/storage"
	httptransport "envisonet-server-go/internal/transport/http"
	httpquery "envisonet-server-go/internal/transport/http/query"
	httpwebapi "envisonet-server-go/internal/transport/http/webapi"

	// Provider registrations.
	_ "envisonet-server-go/internal/core/providers/asr/openai"
	_ "envisonet-server-go/internal/core/providers/llm/openai"
	_ "envisonet-server-go/internal/core/providers/tts/edge"
	_ "envisonet-server-go/internal/core/providers/tts/openai"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	db         *gorm.DB
	area       *staging.Area
	sessions   session.Store
	asr        asr.Provider
	llm        llm.Provider
	vlllm      vlllm.Provider
	tts        tts.Provider
	ttsGainDB  float64
}

// Run drives the whole service lifecycle until the context is cancelled
// or a termination signal arrives.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer logger.Close()

	defer func() {
		if err := state.sessions.Close(context.Background()); err != nil {
			logger.WarnTag("Boot", "session store did not close cleanly: %v", err)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "storage:init-staging",
			Title:     "Initialise staging area",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStagingStep,
		},
		{
			ID:        "session:init-store",
			Title:     "Initialise session store",
			DependsOn: []string{"logging:init"},
			Execute:   initSessionStep,
		},
		{
			ID:        "providers:init",
			Title:     "Initialise AI providers",
			DependsOn: []string{"logging:init"},
			Execute:   initProvidersStep,
		},
		{
			ID:        "events:subscribe",
			Title:     "Subscribe event listeners",
			DependsOn: []string{"logging:init"},
			Execute:   subscribeEventsStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	logger.InfoTag("Boot", "logging ready [%s] %s", state.config.Log.Level, state.configPath)
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Storage.DataDir)
	if err != nil {
		return err
	}
	state.db = db
	state.logger.InfoTag("Boot", "database ready in %s", state.config.Storage.DataDir)
	return nil
}

func initStagingStep(_ context.Context, state *appState) error {
	area, err := staging.New(state.config.Storage.StagingDir)
	if err != nil {
		return err
	}
	state.area = area
	return nil
}

func initSessionStep(_ context.Context, state *appState) error {
	store, err := session.New(state.config.Session)
	if err != nil {
		return err
	}
	state.sessions = store
	state.logger.InfoTag("Boot", "session store ready (%s)", state.config.Session.Driver)
	return nil
}

func initProvidersStep(_ context.Context, state *appState) error {
	cfg := state.config

	asrCfg, ok := cfg.ASR[cfg.Selected.ASR]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "providers:init",
			"selected ASR provider not configured")
	}
	asrProvider, err := asr.Create(&asr.Config{
		Type:      asrCfg.Type,
		ModelName: asrCfg.ModelName,
		BaseURL:   asrCfg.BaseURL,
		APIKey:    asrCfg.APIKey,
		Language:  asrCfg.Language,
	})
	if err != nil {
		return err
	}

	llmCfg, ok := cfg.LLM[cfg.Selected.LLM]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "providers:init",
			"selected LLM provider not configured")
	}
	llmProvider, err := llm.Create(&llm.Config{
		Type:        llmCfg.Type,
		ModelName:   llmCfg.ModelName,
		BaseURL:     llmCfg.BaseURL,
		APIKey:      llmCfg.APIKey,
		Temperature: llmCfg.Temperature,
		MaxTokens:   llmCfg.MaxTokens,
		TopP:        llmCfg.TopP,
	})
	if err != nil {
		return err
	}

	vlllmCfg, ok := cfg.VLLLM[cfg.Selected.VLLLM]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "providers:init",
			"selected VLLLM provider not configured")
	}
	vlllmProvider, err := vlllm.Create(&vlllm.Config{
		Type:        vlllmCfg.Type,
		ModelName:   vlllmCfg.ModelName,
		BaseURL:     vlllmCfg.BaseURL,
		APIKey:      vlllmCfg.APIKey,
		Temperature: vlllmCfg.Temperature,
		MaxTokens:   vlllmCfg.MaxTokens,
		TopP:        vlllmCfg.TopP,
		Prompt:      vlllmCfg.Prompt,
	})
	if err != nil {
		return err
	}

	ttsCfg, ok := cfg.TTS[cfg.Selected.TTS]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "providers:init",
			"selected TTS provider not configured")
	}
	ttsProvider, err := tts.Create(&tts.Config{
		Type:      ttsCfg.Type,
		Voice:     ttsCfg.Voice,
		ModelName: ttsCfg.ModelName,
		APIKey:    ttsCfg.APIKey,
		BaseURL:   ttsCfg.BaseURL,
		GainDB:    ttsCfg.GainDB,
	})
	if err != nil {
		return err
	}

	state.asr = asrProvider
	state.llm = llmProvider
	state.vlllm = vlllmProvider
	state.tts = ttsProvider
	state.ttsGainDB = ttsCfg.GainDB

	state.logger.InfoTag("Boot", "providers ready (ASR=%s LLM=%s VLLLM=%s TTS=%s)",
		cfg.Selected.ASR, cfg.Selected.LLM, cfg.Selected.VLLLM, cfg.Selected.TTS)
	return nil
}

// subscribeEventsStep attaches logging listeners to the pipeline topics.
func subscribeEventsStep(_ context.Context, state *appState) error {
	logger := state.logger

	if err := eventbus.Subscribe(eventbus.EventPipelineError, func(data eventbus.ErrorEventData) {
		logger.ErrorTag("Pipeline", "stage %s failed for %s: %s", data.Stage, data.Username, data.Message)
	}); err != nil {
		return err
	}
	return eventbus.Subscribe(eventbus.EventSynthesisCompleted, func(data eventbus.SynthesisEventData) {
		logger.DebugTag("TTS", "response audio ready for %s at %s", data.Username, data.AudioPath)
	})
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	cfg := state.config
	logger := state.logger

	auth := httpwebapi.NewAuth(cfg.Server.JWTSecret, cfg.Session.TTL, state.sessions)

	router, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: auth.Middleware(),
	})
	if err != nil {
		return err
	}

	users := platformstorage.NewUserRepository(state.db)
	states := platformstorage.NewStateRepository(state.db)
	transcoder := audio.NewTranscoder()

	pipeline := services.NewPipeline(logger, state.asr, state.vlllm, state.llm,
		state.tts, transcoder, state.area, states, state.ttsGainDB)

	httpwebapi.NewUserHandlers(logger, users, auth, state.area, states).
		Register(router.Public, router.Secured)
	httpquery.NewHandlers(logger, pipeline, state.area, states, auth).
		Register(router.Public, router.Secured)

	httpServer := &http.Server{
		Addr:    cfg.Server.IP + ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case <-ctx.Done():
		logger.InfoTag("Boot", "shutdown requested, cleaning up")
	case err := <-done:
		// A service stopped on its own, usually a failed listen.
		cancel()
		return err
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Boot", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("Boot", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("Boot", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}
