package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"

	"github.com/zus-planner-poc/server/internal/agent/events"
	"github.com/zus-planner-poc/server/internal/agent/llm"
	"github.com/zus-planner-poc/server/internal/agent/model"
	"github.com/zus-planner-poc/server/internal/agent/planner"
	"github.com/zus-planner-poc/server/internal/agent/repo"
	"github.com/zus-planner-poc/server/internal/core"
	"github.com/zus-planner-poc/server/internal/server"
	"github.com/zus-planner-poc/server/internal/services/calculator"
	"github.com/zus-planner-poc/server/internal/services/outlets"
	"github.com/zus-planner-poc/server/internal/services/products"
	logx "github.com/zus-planner-poc/server/pkg/logger"
	redisx "github.com/zus-planner-poc/server/pkg/redis"
)

type appConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	Server  server.Config
	Planner model.PlannerConfig
	LLM     model.LLMConfig
	Events  model.EventsConfig
	Session model.SessionConfig
	Tools   model.ToolsConfig
}

func main() {
	_ = godotenv.Load()

	var cfg appConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *goredis.Client
	if cfg.Session.Provider == "redis" {
		var redisCfg redisx.Config
		if err := envconfig.Process("redis", &redisCfg); err != nil {
			logx.Fatal().Err(err).Msg("failed to load redis configuration")
		}
		rdb = redisCfg.MustNew()
		defer rdb.Close()
	}

	store, err := repo.NewSessionStore(cfg.Session, rdb)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build session store")
	}

	broker := events.NewBroker(cfg.Events.MaxBacklog)
	if cfg.Events.JanitorEnabled {
		broker.StartJanitor(time.Duration(cfg.Events.ChannelTTLMin) * time.Minute)
	}
	defer broker.Close()

	backend, err := llm.NewBackend(ctx, cfg.LLM, time.Duration(cfg.Planner.TimeoutSec)*time.Second)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build model backend")
	}
	invoker := llm.NewInvoker(backend, cfg.LLM.CacheSize)

	calc, err := newCalculator(cfg.Tools)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build calculator")
	}
	searcher, err := products.NewSearcher(cfg.Tools.ProductProvider)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build product searcher")
	}
	querier, err := outlets.NewQuerier(cfg.Tools.OutletProvider)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build outlet querier")
	}

	pl := planner.New(invoker, store, broker, calc, searcher, querier, cfg.Planner)
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.New(pl, broker, calc, searcher, querier, cfg.Events).Handler(),
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Str("environment", env.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newCalculator(cfg model.ToolsConfig) (planner.Calculator, error) {
	switch cfg.CalcMode {
	case "local", "":
		return calculator.NewService(), nil
	case "http":
		return calculator.NewHTTPService(cfg.CalcHTTPBaseURL)
	default:
		return nil, &calculator.Error{Message: "unsupported CALC_TOOL_MODE " + cfg.CalcMode}
	}
}
