package payout

import (
	"context"
	"time"

	"github.com/developia-II/mercaplaza-backend/internal/adapters/repository"
	"github.com/sirupsen/logrus"
)

const (
	dispersalHour  = 3 // daily cycle check runs at 03:00 local time
	retryBatchSize = 10
	cycleTimeout   = 5 * time.Minute
)

// Scheduler drives the two background loops of the dispersion subsystem:
// a daily check that runs a bulk dispersion cycle when the configured
// frequency has elapsed, and an hourly pass that executes payouts still
// sitting in pending. Both go through the same Service used by handlers.
type Scheduler struct {
	svc     Service
	config  repository.DispersionConfigRepository
	payouts repository.PayoutRepository

	location *time.Location
	now      func() time.Time
	stop     chan struct{}
}

func NewScheduler(svc Service, config repository.DispersionConfigRepository, payouts repository.PayoutRepository) *Scheduler {
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		svc:      svc,
		config:   config,
		payouts:  payouts,
		location: loc,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start launches both loops. Call Stop to end them; an in-flight cycle is
// never interrupted, only the wait between ticks is.
func (s *Scheduler) Start() {
	go s.runDaily()
	go s.runHourly()
	logrus.Info("Dispersion scheduler started")
}

func (s *Scheduler) Stop() {
	close(s.stop)
	logrus.Info("Dispersion scheduler stopped")
}

func (s *Scheduler) runDaily() {
	for {
		wait := time.Until(s.nextDailyRun())
		select {
		case <-s.stop:
			return
		case <-time.After(wait):
			ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
			if err := s.RunDispersalCycle(ctx); err != nil {
				logrus.WithError(err).Error("Automatic dispersal cycle failed")
			}
			cancel()
		}
	}
}

func (s *Scheduler) runHourly() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
			s.ProcessPendingPayouts(ctx)
			cancel()
		}
	}
}

// nextDailyRun returns the next 03:00 in the scheduler's timezone.
func (s *Scheduler) nextDailyRun() time.Time {
	now := s.now().In(s.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), dispersalHour, 0, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunDispersalCycle checks whether a bulk dispersion is due and runs it.
// Also invoked directly by the admin "run now" endpoint.
func (s *Scheduler) RunDispersalCycle(ctx context.Context) error {
	config, err := s.svc.GetOrCreateConfig(ctx)
	if err != nil {
		return err
	}

	if !config.IsAutoDispersalOn {
		logrus.Info("Automatic dispersal is turned off")
		return nil
	}

	now := s.now()
	if !shouldRunDispersal(config.LastDispersalAt, config.DispersalFrequencyDays, now) {
		logrus.Debug("Dispersal frequency has not elapsed yet")
		return nil
	}

	logrus.Info("Starting automatic dispersal cycle")

	result, err := s.svc.CreateMultiplePayouts(ctx, nil)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
	}).Info("Dispersal cycle finished")

	next := now.AddDate(0, 0, config.DispersalFrequencyDays)
	recorded, err := s.config.RecordDispersalRun(ctx, config.LastDispersalAt, now, next)
	if err != nil {
		return err
	}
	if !recorded {
		// Another tick already claimed this cycle; nothing to roll back,
		// payout creation itself is idempotent against the balance.
		logrus.Warn("Dispersal run already recorded by a concurrent cycle")
	}
	return nil
}

// ProcessPendingPayouts executes up to retryBatchSize pending payouts.
// Per-payout failures are logged and skipped so the batch always advances.
func (s *Scheduler) ProcessPendingPayouts(ctx context.Context) {
	pending, err := s.payouts.ListPending(ctx, retryBatchSize)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch pending payouts")
		return
	}
	if len(pending) == 0 {
		logrus.Debug("No pending payouts to process")
		return
	}

	logrus.WithField("count", len(pending)).Info("Processing pending payouts")

	for _, p := range pending {
		if _, err := s.svc.ExecutePayoutTransfer(ctx, p.ID); err != nil {
			logrus.WithFields(logrus.Fields{
				"payoutId": p.ID.Hex(),
				"error":    err.Error(),
			}).Error("Pending payout execution failed")
			continue
		}
		logrus.WithField("payoutId", p.ID.Hex()).Info("Pending payout executed")
	}
}

// shouldRunDispersal reports whether enough whole days have elapsed since the
// last run. A missing last run means the cycle has never happened: run now.
func shouldRunDispersal(last *time.Time, frequencyDays int, now time.Time) bool {
	if last == nil {
		return true
	}
	elapsedDays := int(now.Sub(*last).Hours() / 24)
	return elapsedDays >= frequencyDays
}
