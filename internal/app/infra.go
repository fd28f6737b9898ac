package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"luxora/internal/core/cache"
	"luxora/internal/core/config"
	"luxora/internal/core/database"
	"luxora/internal/core/mail"
	"luxora/internal/core/payment"
	"luxora/internal/core/storage"
	"luxora/internal/repo"
)

const wishlistCollection = "wishlists"

// OpenInfra 按配置连接外部依赖。返回的 cleanup 按打开的逆序释放。
func OpenInfra(ctx context.Context, cfg *config.Config, l *zap.Logger) (Infra, func(), error) {
	var (
		in      Infra
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (Infra, func(), error) {
		cleanup()
		return Infra{}, func() {}, err
	}

	pool := database.NewPool(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	db, err := pool.Get()
	if err != nil {
		return fail(fmt.Errorf("open db: %w", err))
	}
	closers = append(closers, func() { _ = pool.Close() })
	in.DB = db
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(ctx, db); err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		l.Info("automigrate done")
	}

	if cfg.Redis.Enabled {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			// 缓存不是必需的，连不上就关掉
			l.Warn("redis unavailable, product cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			closers = append(closers, func() { _ = c.Close() })
			in.Cache = c
		}
	}

	if strings.EqualFold(cfg.Wishlist.Store, "mongo") {
		cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return fail(fmt.Errorf("connect mongo: %w", err))
		}
		closers = append(closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = cli.Disconnect(dctx)
		})
		in.Wishlist = repo.NewMongoWishlistRepo(cli.Database(cfg.Mongo.Database).Collection(wishlistCollection))
		l.Info("wishlist store: mongo", zap.String("database", cfg.Mongo.Database))
	}

	switch strings.ToLower(cfg.Payment.Provider) {
	case "stripe":
		in.Gateway = payment.NewStripe(cfg.Payment.SecretKey, cfg.Payment.PublishableKey, cfg.Payment.Currency)
		l.Info("card payments enabled", zap.String("currency", cfg.Payment.Currency))
	default:
		in.Gateway = payment.NewDisabled(cfg.Payment.Currency)
	}

	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3(ctx, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.PublicBaseURL)
		if err != nil {
			return fail(err)
		}
		in.Store = s3
	}

	if cfg.Mail.SendGridKey != "" {
		in.Mailer = mail.NewSendGrid(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromAddress, l)
	} else {
		in.Mailer = mail.Log{L: l}
	}
	return in, cleanup, nil
}
