package main

import (
	"context"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"luxora/internal/app"
	"luxora/internal/core/config"
	"luxora/internal/core/logger"
	"luxora/internal/core/server"
	"luxora/internal/transport/http/ez"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	zap.ReplaceGlobals(log)
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)
	ez.SetupValidator()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, closeInfra, err := app.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Fatal("infra init failed", zap.Error(err))
	}
	defer closeInfra()

	infra.Realtime = true
	a := app.New(cfg, log, infra)
	a.RunHub(ctx)

	h := cfg.App.HTTP
	srv := server.BuildServer(server.Addr(h.Host, h.Port), a.APIEngine(),
		secondsOr(h.ReadTimeoutSec, 5), secondsOr(h.WriteTimeoutSec, 15), secondsOr(h.IdleTimeoutSec, 60))

	base := server.BaseURL(h.Host, h.Port)
	log.Info("luxora api",
		zap.String("open", base),
		zap.String("health", base+"/health"),
		zap.String("api", base+"/api"),
	)
	if err := server.Run(ctx, srv, log, "luxora api", 10*time.Second); err != nil {
		log.Error("server exited", zap.Error(err))
	}
}

func secondsOr(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
