package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaults(t *testing.T) {
	timeouts.Reset()
	if timeouts.Ping() != timeouts.DefaultPing || timeouts.Batch() != timeouts.DefaultBatch {
		t.Errorf("unexpected defaults %+v", timeouts.Current())
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	timeouts.Reset()
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})
	if timeouts.Short() != 7*time.Second {
		t.Errorf("Short = %v, want 7s", timeouts.Short())
	}
	if timeouts.Medium() != timeouts.DefaultMedium {
		t.Errorf("Medium should keep default, got %v", timeouts.Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	timeouts.Reset()
	t.Cleanup(timeouts.Reset)

	t.Setenv("TESTX_TIMEOUT_PING", "750ms")
	t.Setenv("TESTX_TIMEOUT_LONG", "2m")
	t.Setenv("TESTX_TIMEOUT_SHORT", "garbage")
	t.Setenv("TESTX_TIMEOUT_BATCH", "-5s")

	if n := timeouts.ConfigureFromEnv("TESTX_"); n != 2 {
		t.Errorf("configured %d values, want 2", n)
	}
	if timeouts.Ping() != 750*time.Millisecond {
		t.Errorf("Ping = %v", timeouts.Ping())
	}
	if timeouts.Long() != 2*time.Minute {
		t.Errorf("Long = %v", timeouts.Long())
	}
	if timeouts.Short() != timeouts.DefaultShort || timeouts.Batch() != timeouts.DefaultBatch {
		t.Error("invalid values must be ignored")
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.New(core), "slow op")
	<-ctx.Done()
	cancel()

	if logs.FilterMessage("operation timed out").Len() != 1 {
		t.Error("expected a timeout warning")
	}
}

func TestWithTimeout_QuietOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := timeouts.WithTimeout(context.Background(), time.Minute, zap.New(core), "fast op")
	cancel()

	if logs.Len() != 0 {
		t.Error("expected no warning when the caller cancels")
	}
}
