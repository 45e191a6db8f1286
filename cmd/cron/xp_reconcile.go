package main

import (
	"context"
	"log"
	"time"

	"questboard/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
)

// one run may not outlive this; a second instance skips while it holds the lock
const XP_RECONCILE_LOCK_EXPIRY = 30 * time.Minute

type XPReconcileJob struct {
	rs            *redsync.Redsync
	serviceLedger *services.ServiceLedger
	serviceConfig *services.ServiceConfig
}

func NewXPReconcileJob(container *do.Injector, rs *redsync.Redsync) (*XPReconcileJob, error) {
	serviceLedger, err := do.Invoke[*services.ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*services.ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &XPReconcileJob{rs, serviceLedger, serviceConfig}, nil
}

func (j *XPReconcileJob) Start(cronRunner *cron.Cron) error {
	timeline, err := j.serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_XP_RECONCILE, services.DEFAULT_CRONJOB_TIME_XP_RECONCILE)
	if err != nil {
		log.Println("[cron] read schedule, using default:", err)
	}

	_, err = cronRunner.AddFunc(timeline, j.runScheduledTask)
	log.Println("XP reconcile Cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", timeline, err)
	return err
}

func (j *XPReconcileJob) runScheduledTask() {
	mutex := j.rs.NewMutex(services.LockKeyXPReconcile(), redsync.WithTries(1), redsync.WithExpiry(XP_RECONCILE_LOCK_EXPIRY))
	if err := mutex.Lock(); err != nil {
		log.Println("XP reconcile already running elsewhere:", err)
		return
	}
	// nolint:errcheck
	defer mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), XP_RECONCILE_LOCK_EXPIRY)
	defer cancel()

	start := time.Now()
	log.Println("Start reconciling user XP ...")
	n, err := j.serviceLedger.ReconcileAll(ctx)
	if err != nil {
		log.Println("XP reconcile failed:", err)
		return
	}
	log.Println("XP reconciled:", "users:", n, "took:", time.Since(start))
}
