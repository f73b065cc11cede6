// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package services

import (
	"context"
	"fmt"
)

// StartStopManager matches the Start/Stop lifecycle shared by the risk
// scheduler and the CRM syncer: Start spawns internal goroutines and
// returns immediately, Stop blocks until they drain.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// LifecycleService adapts a Start/Stop manager to suture's Serve pattern:
// start, block on the context, stop.
type LifecycleService struct {
	manager StartStopManager
	name    string
}

// NewLifecycleService creates a service wrapper around a Start/Stop
// manager. The name identifies the service in supervisor logs.
//
// Example:
//
//	sched := scheduler.New(db, thresholds, logger, cfg)
//	tree.AddEngineService(services.NewLifecycleService(sched, "risk-scheduler"))
func NewLifecycleService(manager StartStopManager, name string) *LifecycleService {
	return &LifecycleService{
		manager: manager,
		name:    name,
	}
}

// Serve implements suture.Service. A Start failure is returned immediately
// so suture restarts the service under its backoff policy.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for supervisor log messages.
func (s *LifecycleService) String() string {
	return s.name
}
