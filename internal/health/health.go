package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// Status 健康状态
type Status struct {
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`
	Rooms    int    `json:"rooms"`
}

// Healthy 所有已启用的依赖都已连接
func (s *Status) Healthy() bool {
	for _, v := range []string{s.NATS, s.Redis, s.Database} {
		if v == StatusDisconnected {
			return false
		}
	}
	return true
}

// Checker 健康检查器，未启用的依赖传 nil
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	db          *pgxpool.Pool
	rooms       func() int
}

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool, rooms func() int) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
		rooms:       rooms,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:     StatusDisabled,
		Redis:    StatusDisabled,
		Database: StatusDisabled,
	}

	if h.nc != nil {
		status.NATS = statusOf(h.nc.IsConnected())
	}

	if h.redisClient != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
		defer redisCancel()
		status.Redis = statusOf(h.redisClient.Ping(redisCtx).Err() == nil)
	}

	if h.db != nil {
		dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
		defer dbCancel()
		status.Database = statusOf(h.db.Ping(dbCtx) == nil)
	}

	if h.rooms != nil {
		status.Rooms = h.rooms()
	}

	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func statusOf(ok bool) string {
	if ok {
		return StatusConnected
	}
	return StatusDisconnected
}
