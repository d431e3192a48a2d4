package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"sudooom.mahjong/internal/auth"
	"sudooom.mahjong/internal/config"
	"sudooom.mahjong/internal/connection"
	"sudooom.mahjong/internal/dispatch"
	"sudooom.mahjong/internal/game/tile"
	"sudooom.mahjong/internal/handler"
	"sudooom.mahjong/internal/health"
	mjNats "sudooom.mahjong/internal/nats"
	"sudooom.mahjong/internal/presence"
	"sudooom.mahjong/internal/repository"
	"sudooom.mahjong/internal/room"
	"sudooom.mahjong/internal/router"
	"sudooom.mahjong/pkg/snowflake"
)

func main() {
	// 加载配置
	cfg, err := config.Load(configPath())
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 初始化雪花ID生成器
	sfNode, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 房间
	registry := room.NewRegistry(tile.NewDeckGenerator())
	if cfg.App.RoomIdleTimeout > 0 {
		go registry.RunEviction(ctx, cfg.App.EvictInterval, cfg.App.RoomIdleTimeout)
	}
	connManager := connection.NewManager()

	// 网关模式：连接 NATS
	var (
		natsClient *mjNats.Client
		natsConn   *nats.Conn
		publisher  dispatch.AccessPublisher
	)
	if cfg.NATS.Enabled {
		natsClient, err = mjNats.NewClient(cfg.NATS, cfg.App.NodeID)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		natsConn = natsClient.Conn()
		publisher = mjNats.NewGatewayPublisher(natsConn)
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	dispatcher := dispatch.NewDispatcher(connManager, publisher)
	roomService := room.NewService(registry, dispatcher)

	// 连接 Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = connectRedis(cfg.Redis)
		defer redisClient.Close()
		roomService.SetPresenceStore(presence.NewStore(redisClient, cfg.Redis.PresenceTTL))
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())
	}

	// 连接数据库
	var (
		db      *pgxpool.Pool
		history handler.HistoryLister
	)
	if cfg.Database.Enabled {
		db, err = connectDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		results := repository.NewGameResultRepository(db)
		if err := results.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to ensure schema", "error", err)
			os.Exit(1)
		}
		roomService.SetHistoryRecorder(results)
		history = results
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
	}

	// 初始化 JWT 服务
	var authService *auth.Service
	if cfg.Auth.Enabled {
		authService = auth.NewService(cfg.Auth.SecretKey, cfg.Auth.TokenExpire)
	}

	// 初始化 Handler
	gameHandler := handler.NewGameHandler(roomService, authService, sfNode)
	wsHandler := handler.NewWSHandler(gameHandler, connManager, sfNode, connection.Options{
		ReadLimit:    cfg.WebSocket.ReadLimit,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		PingInterval: cfg.WebSocket.PingInterval,
		PongWait:     cfg.WebSocket.PongWait(),
		SendBuffer:   cfg.WebSocket.SendBuffer,
	})
	playerHandler := handler.NewPlayerHandler(authService, sfNode)
	roomHandler := handler.NewRoomHandler(roomService, history)

	// 启动 NATS 订阅者
	var subscriber *mjNats.MessageSubscriber
	if natsConn != nil {
		gateway := handler.NewGatewayHandler(gameHandler, dispatcher)
		subscriber = mjNats.NewMessageSubscriber(natsConn, gateway, mjNats.SubscriberConfig{
			WorkerCount: cfg.NATS.WorkerCount,
			BufferSize:  cfg.NATS.BufferSize,
		})
		if err := subscriber.Start(ctx); err != nil {
			logger.Error("Failed to start subscriber", "error", err)
			os.Exit(1)
		}
	}

	// 设置路由
	healthChecker := health.NewChecker(natsConn, redisClient, db, registry.Count)
	r := router.SetupRouter(cfg, healthChecker, wsHandler, playerHandler, roomHandler)

	// 启动服务器
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: r,
	}
	go func() {
		logger.Info("Mahjong server started",
			"addr", server.Addr,
			"mode", cfg.App.Mode,
			"gateway", cfg.NATS.Enabled,
			"auth", cfg.Auth.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown failed", "error", err)
	}
	// 被升级的连接不受 Shutdown 管理
	connManager.CloseAll()

	if subscriber != nil {
		if err := subscriber.Stop(); err != nil {
			logger.Warn("Failed to stop subscriber", "error", err)
		}
	}
	cancel()

	logger.Info("Server stopped", "rooms", registry.Count())
}

// configPath 配置文件路径，可用 MAHJONG_CONFIG 覆盖
func configPath() string {
	if p := os.Getenv("MAHJONG_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
