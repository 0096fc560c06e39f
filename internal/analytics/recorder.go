package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"edge-auth/internal/config"
)

const (
	KindSignInSuccess = "signin.success"
	KindSignInFailure = "signin.failure"
	KindSignOut       = "signout"
)

// Event es un evento de autenticación.
type Event struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Provider string    `json:"provider,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	ClientIP string    `json:"client_ip,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder registra eventos. Un fallo nunca debe cortar la request.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// New elige el backend según ANALYTICS_BACKEND. Si el backend necesita un
// cliente que no está disponible se usa el de log.
func New(cfg config.Config, logger *zap.Logger, redisClient *redis.Client, pool *pgxpool.Pool) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.AnalyticsEnabled.Bool() {
		return NopRecorder{}
	}
	switch cfg.AnalyticsBackend {
	case "kv":
		if redisClient != nil {
			return NewKVRecorder(redisClient, logger)
		}
		logger.Warn("analytics kv backend requires REDIS_ADDR, falling back to log")
	case "d1":
		if pool != nil {
			return NewSQLRecorder(pool, logger)
		}
		logger.Warn("analytics d1 backend requires a database, falling back to log")
	case "engine":
		logger.Warn("analytics engine backend is only available inside the edge runtime, falling back to log")
	}
	return NewLogRecorder(logger)
}

func stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return event
}

type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, event Event) {
	event = stamp(event)
	r.logger.Info("analytics",
		zap.String("event_id", event.ID),
		zap.String("kind", event.Kind),
		zap.String("provider", event.Provider),
		zap.String("user_id", event.UserID),
		zap.String("client_ip", event.ClientIP),
		zap.Time("at", event.At),
	)
}

type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// KVRecorder guarda los últimos eventos en una lista de redis.
type KVRecorder struct {
	client listPusher
	logger *zap.Logger
	key    string
	keep   int64
}

func NewKVRecorder(client *redis.Client, logger *zap.Logger) *KVRecorder {
	return &KVRecorder{
		client: client,
		logger: logger,
		key:    "analytics:auth",
		keep:   10000,
	}
}

func (r *KVRecorder) Record(ctx context.Context, event Event) {
	event = stamp(event)
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("analytics marshal failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := r.client.LPush(ctx, r.key, payload).Err(); err != nil {
		r.logger.Warn("analytics kv write failed", zap.Error(err))
		return
	}
	if err := r.client.LTrim(ctx, r.key, 0, r.keep-1).Err(); err != nil {
		r.logger.Warn("analytics kv trim failed", zap.Error(err))
	}
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// SQLRecorder inserta los eventos en la tabla auth_events.
type SQLRecorder struct {
	db     execer
	logger *zap.Logger
}

func NewSQLRecorder(pool *pgxpool.Pool, logger *zap.Logger) *SQLRecorder {
	return &SQLRecorder{db: pool, logger: logger}
}

func (r *SQLRecorder) Record(ctx context.Context, event Event) {
	event = stamp(event)
	const query = `
		INSERT INTO auth_events (id, kind, provider, user_id, client_ip, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
	`
	if _, err := r.db.Exec(ctx, query, event.ID, event.Kind, event.Provider, event.UserID, event.ClientIP, event.At); err != nil {
		r.logger.Warn("analytics insert failed", zap.Error(err))
	}
}
