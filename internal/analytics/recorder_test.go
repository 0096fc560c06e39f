package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"edge-auth/internal/config"
)

func loadConfig(t *testing.T, environ map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load(environ)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestNew_SelectsBackend(t *testing.T) {
	if _, ok := New(loadConfig(t, map[string]string{}), nil, nil, nil).(NopRecorder); !ok {
		t.Fatalf("expected nop recorder when analytics disabled")
	}

	enabled := loadConfig(t, map[string]string{"ANALYTICS_ENABLED": "true"})
	if _, ok := New(enabled, nil, nil, nil).(*LogRecorder); !ok {
		t.Fatalf("expected log recorder by default")
	}

	kv := loadConfig(t, map[string]string{"ANALYTICS_ENABLED": "true", "ANALYTICS_BACKEND": "kv"})
	if _, ok := New(kv, nil, redis.NewClient(&redis.Options{Addr: "localhost:0"}), nil).(*KVRecorder); !ok {
		t.Fatalf("expected kv recorder with redis")
	}
	if _, ok := New(kv, nil, nil, nil).(*LogRecorder); !ok {
		t.Fatalf("expected log fallback without redis")
	}

	engine := loadConfig(t, map[string]string{"ANALYTICS_ENABLED": "true", "ANALYTICS_BACKEND": "engine"})
	if _, ok := New(engine, nil, nil, nil).(*LogRecorder); !ok {
		t.Fatalf("expected log fallback for engine backend")
	}
}

func TestLogRecorder(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewLogRecorder(zap.New(core))

	r.Record(context.Background(), Event{Kind: KindSignInSuccess, Provider: "credentials", UserID: "u1"})

	entries := logs.FilterMessage("analytics").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != KindSignInSuccess || fields["user_id"] != "u1" || fields["event_id"] == "" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

type mockListPusher struct {
	key     string
	values  []interface{}
	trimTo  int64
	pushErr error
}

func (m *mockListPusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.key = key
	m.values = append(m.values, values...)
	cmd := redis.NewIntCmd(ctx)
	if m.pushErr != nil {
		cmd.SetErr(m.pushErr)
		return cmd
	}
	cmd.SetVal(int64(len(m.values)))
	return cmd
}

func (m *mockListPusher) LTrim(ctx context.Context, _ string, _, stop int64) *redis.StatusCmd {
	m.trimTo = stop
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func TestKVRecorder(t *testing.T) {
	mock := &mockListPusher{}
	r := &KVRecorder{client: mock, logger: zap.NewNop(), key: "analytics:auth", keep: 100}

	r.Record(context.Background(), Event{Kind: KindSignOut, UserID: "u1"})

	if mock.key != "analytics:auth" || len(mock.values) != 1 {
		t.Fatalf("unexpected push: %q %v", mock.key, mock.values)
	}
	var got Event
	if err := json.Unmarshal(mock.values[0].([]byte), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindSignOut || got.UserID != "u1" || got.ID == "" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if mock.trimTo != 99 {
		t.Fatalf("expected trim to keep 100 entries, got stop=%d", mock.trimTo)
	}
}

func TestKVRecorder_SwallowsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mock := &mockListPusher{pushErr: errors.New("redis down")}
	r := &KVRecorder{client: mock, logger: zap.New(core), key: "k", keep: 10}

	r.Record(context.Background(), Event{Kind: KindSignInFailure})

	if logs.FilterMessage("analytics kv write failed").Len() != 1 {
		t.Fatalf("expected warning on write failure")
	}
	if mock.trimTo != 0 {
		t.Fatalf("expected no trim after failed push")
	}
}

type mockExecer struct {
	sql  string
	args []any
}

func (m *mockExecer) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	m.sql = sql
	m.args = arguments
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestSQLRecorder(t *testing.T) {
	mock := &mockExecer{}
	r := &SQLRecorder{db: mock, logger: zap.NewNop()}

	r.Record(context.Background(), Event{Kind: KindSignInSuccess, Provider: "google", UserID: "u1", ClientIP: "1.2.3.4"})

	if len(mock.args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(mock.args))
	}
	if mock.args[1] != KindSignInSuccess || mock.args[2] != "google" || mock.args[4] != "1.2.3.4" {
		t.Fatalf("unexpected args: %v", mock.args)
	}
}
