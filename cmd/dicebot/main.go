// Package main runs the dice bot: a Telnet chat server whose rooms share
// dice rolls evaluated by the dice engine.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dicebot/internal/bot"
	"github.com/cory-johannsen/dicebot/internal/config"
	"github.com/cory-johannsen/dicebot/internal/dice"
	"github.com/cory-johannsen/dicebot/internal/frontend/handlers"
	"github.com/cory-johannsen/dicebot/internal/frontend/telnet"
	"github.com/cory-johannsen/dicebot/internal/observability"
	"github.com/cory-johannsen/dicebot/internal/reply"
	"github.com/cory-johannsen/dicebot/internal/scripting"
	"github.com/cory-johannsen/dicebot/internal/server"
	"github.com/cory-johannsen/dicebot/internal/settings"
	"github.com/cory-johannsen/dicebot/internal/storage/postgres"
	"github.com/cory-johannsen/dicebot/internal/storage/redis"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "dicebot")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dicebot",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	store, err := openStore(ctx, cfg, logger, lifecycle)
	if err != nil {
		logger.Fatal("opening settings store", zap.Error(err))
	}

	replies, err := reply.Load(cfg.Replies.Path)
	if err != nil {
		logger.Fatal("loading reply templates", zap.Error(err))
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)

	var macros bot.MacroRunner
	if cfg.Scripting.Dir != "" {
		limits := dice.Limits{
			DefaultSurface:   cfg.Dice.DefaultSurface,
			MaxDiceNumber:    cfg.Dice.MaxDiceNumber,
			MaxSurfaceNumber: cfg.Dice.MaxSurfaceNumber,
		}
		mgr := scripting.NewManager(roller, limits, cfg.Scripting.InstructionLimit, logger)
		if err := mgr.LoadDir(ctx, cfg.Scripting.Dir); err != nil {
			logger.Fatal("loading macros", zap.String("dir", cfg.Scripting.Dir), zap.Error(err))
		}
		lifecycle.OnShutdown("macros", func() error {
			mgr.Close()
			return nil
		})
		macros = mgr
	}

	b := bot.New(bot.NewHub(), roller, store, replies, macros, cfg.Dice, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewChatHandler(b, cfg.Telnet.DefaultChat, logger), logger)

	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("dicebot initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Bool("macros", macros != nil),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStore connects the configured settings backend and registers its
// shutdown with lifecycle.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger, lifecycle *server.Lifecycle) (settings.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		lifecycle.OnShutdown("postgres", func() error {
			pool.Close()
			return nil
		})
		return postgres.NewChatSettingsRepository(pool.DB()), nil
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		lifecycle.OnShutdown("redis", client.Close)
		return redis.NewChatSettingsStore(client, cfg.Redis.KeyPrefix), nil
	default:
		return settings.NewMemoryStore(), nil
	}
}
