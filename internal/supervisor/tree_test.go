// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// blockingService runs until its context is canceled, counting starts.
type blockingService struct {
	name   string
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewTree(t *testing.T) {
	t.Run("builds the two-layer hierarchy", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})

		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
		if tree.engine == nil || tree.api == nil {
			t.Error("child supervisors should not be nil")
		}
	})

	t.Run("zero config gets defaults", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{})

		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("FailureThreshold = %f, want 5.0", tree.config.FailureThreshold)
		}
		if tree.config.FailureDecay != 30.0 {
			t.Errorf("FailureDecay = %f, want 30.0", tree.config.FailureDecay)
		}
		if tree.config.FailureBackoff != 15*time.Second {
			t.Errorf("FailureBackoff = %v, want 15s", tree.config.FailureBackoff)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("ShutdownTimeout = %v, want 10s", tree.config.ShutdownTimeout)
		}
	})
}

func TestTreeLifecycle(t *testing.T) {
	t.Run("starts services and stops on cancel", func(t *testing.T) {
		tree := NewTree(testLogger(), TreeConfig{
			FailureBackoff:  100 * time.Millisecond,
			ShutdownTimeout: time.Second,
		})

		engine := &blockingService{name: "mock-engine"}
		api := &blockingService{name: "mock-api"}
		tree.AddEngineService(engine)
		tree.AddAPIService(api)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		deadline := time.After(2 * time.Second)
		for engine.starts.Load() == 0 || api.starts.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("services did not start in time")
			case <-time.After(10 * time.Millisecond):
			}
		}

		cancel()
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down in time")
		}
	})
}
