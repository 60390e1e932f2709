package scheduler

import (
	"context"
	"time"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/internal/app/service"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// SweepScheduler 리스팅 종료 및 쿼터 정합성 점검 스케줄러
type SweepScheduler struct {
	cron   *cron.Cron
	sweeps service.SweepService
	cfg    config.SchedulerConfig
}

// NewSweepScheduler 스케줄러 생성
func NewSweepScheduler(sweeps service.SweepService, cfg config.SchedulerConfig) *SweepScheduler {
	return &SweepScheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sweeps: sweeps,
		cfg:    cfg,
	}
}

// Start 스케줄러 시작
func (s *SweepScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ListingCloseSpec, s.CloseSettledListings); err != nil {
		logger.Error("Failed to add cron job for listing close sweep", err, map[string]interface{}{
			"spec": s.cfg.ListingCloseSpec,
		})
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.QuotaReconcileSpec, s.ReconcileQuotas); err != nil {
		logger.Error("Failed to add cron job for quota reconciliation", err, map[string]interface{}{
			"spec": s.cfg.QuotaReconcileSpec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Sweep scheduler started successfully", map[string]interface{}{
		"listing_close_spec":   s.cfg.ListingCloseSpec,
		"quota_reconcile_spec": s.cfg.QuotaReconcileSpec,
	})
	return nil
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다린다.
func (s *SweepScheduler) Stop() {
	logger.Info("Stopping sweep scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Sweep scheduler stopped", nil)
}

// CloseSettledListings 정산이 끝난 리스팅 종료 작업
func (s *SweepScheduler) CloseSettledListings() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting scheduled listing close sweep", nil)
	closed, err := s.sweeps.CloseSettledListings(ctx)
	if err != nil {
		logger.Error("Listing close sweep failed", err)
		return
	}
	logger.Info("Scheduled listing close sweep finished", map[string]interface{}{
		"closed": closed,
	})
}

// ReconcileQuotas 쿼터 원장 재계산 작업
func (s *SweepScheduler) ReconcileQuotas() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting scheduled quota reconciliation", nil)
	drifts, err := s.sweeps.ReconcileQuotas(ctx)
	if err != nil {
		logger.Error("Quota reconciliation failed", err)
		return
	}
	logger.Info("Scheduled quota reconciliation finished", map[string]interface{}{
		"repaired": len(drifts),
	})
}
