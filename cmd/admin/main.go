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

	ctx := context.Background()
	infra, closeInfra, err := app.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Fatal("infra init failed", zap.Error(err))
	}
	defer closeInfra()

	a := app.New(cfg, log, infra)

	// 首次启动时按配置建管理员账号
	if cfg.Admin.Email != "" {
		if err := a.Auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal("ensure admin failed", zap.Error(err))
		}
	}

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, a.AdminEngine(), 5*time.Second, 10*time.Second, 60*time.Second)

	base := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("luxora admin",
		zap.String("open", base),
		zap.String("health", base+"/health"),
		zap.String("admin_v1", base+"/admin/v1"),
	)
	if err := server.Run(ctx, srv, log, "luxora admin", 10*time.Second); err != nil {
		log.Error("server exited", zap.Error(err))
	}
}
