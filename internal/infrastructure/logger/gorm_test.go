package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func sqlCallback(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_TraceError(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), sqlCallback("SELECT 1", 0), errors.New("connection reset"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "sql error", entry.Message)
	assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
}

func TestGormLogger_TraceIgnoresRecordNotFound(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), sqlCallback("SELECT 1", 0), gormlogger.ErrRecordNotFound)

	assert.Equal(t, 0, logs.Len())
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Warn)

	begin := time.Now().Add(-time.Second)
	gl.Trace(context.Background(), begin, sqlCallback("SELECT pg_sleep(1)", 1), nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "slow sql", entry.Message)
}

func TestGormLogger_TraceSilent(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), sqlCallback("SELECT 1", 1), errors.New("ignored"))

	assert.Equal(t, 0, logs.Len())
}

func TestGormLogger_TraceIncludesRequestID(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Error)

	ctx, _ := WithRequestID(context.Background(), log, "req-42")
	gl.Trace(ctx, time.Now(), sqlCallback("SELECT 1", 0), errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	log, logs := newObservedLogger()
	gl := NewGormLogger(log, gormlogger.Silent)

	elevated := gl.LogMode(gormlogger.Error)
	elevated.Trace(context.Background(), time.Now(), sqlCallback("SELECT 1", 0), errors.New("boom"))

	// The original stays silent
	gl.Trace(context.Background(), time.Now(), sqlCallback("SELECT 1", 0), errors.New("boom"))

	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.level))
		})
	}
}
