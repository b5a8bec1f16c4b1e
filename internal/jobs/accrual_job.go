package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"investment-platform/internal/services"
)

// AccrualJob fires the accrual cycle on a fixed cadence. Overlap protection
// lives in the service's cycle lock; the job just ticks.
type AccrualJob struct {
	accrual  *services.AccrualService
	interval time.Duration
	stopChan chan struct{}
}

// NewAccrualJob creates a new accrual scheduler
func NewAccrualJob(accrual *services.AccrualService, interval time.Duration) *AccrualJob {
	return &AccrualJob{
		accrual:  accrual,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the accrual loop
func (j *AccrualJob) Start() {
	logrus.Infof("[AccrualJob] starting accrual job (interval: %v)", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.runOnce()
		case <-j.stopChan:
			logrus.Info("[AccrualJob] stopping accrual job")
			return
		}
	}
}

// Stop stops the accrual loop
func (j *AccrualJob) Stop() {
	close(j.stopChan)
}

func (j *AccrualJob) runOnce() {
	report, err := j.accrual.RunCycle(context.Background())
	if err != nil {
		logrus.Errorf("[AccrualJob] accrual cycle failed: %v", err)
		return
	}
	if report.Skipped {
		logrus.Info("[AccrualJob] cycle skipped, previous cycle still running")
	}
}
