package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-registry/internal/db"
)

// Clock abstracts wall-clock access so tests can drive virtual time
// instead of waiting on real timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the real wall clock.
func SystemClock() Clock { return systemClock{} }

// Result describes one completed sweep run.
type Result struct {
	RunID    string        `json:"run_id"`
	AsOf     time.Time     `json:"as_of"`
	Expired  int64         `json:"expired"`
	Duration time.Duration `json:"duration"`
}

// Notifier receives sweep results for downstream consumers.
type Notifier interface {
	PublishSweep(result Result)
}

// Sweeper transitions active vehicles whose registration has lapsed to
// expired. It runs once at start and then daily at a fixed hour. The
// predicate is state-based, so a failed or skipped run is caught by the
// next one; expired is terminal from the sweeper's point of view.
type Sweeper struct {
	vehicles db.VehicleCollection
	notifier Notifier
	clock    Clock
	hourUTC  int // time-of-day for the daily run

	inFlight sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a sweeper over the vehicle collection. notifier may be
// nil. hourUTC is the UTC hour of day (0-23) for the daily run.
func New(vehicles db.VehicleCollection, notifier Notifier, clock Clock, hourUTC int) *Sweeper {
	if clock == nil {
		clock = SystemClock()
	}
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}
	return &Sweeper{
		vehicles: vehicles,
		notifier: notifier,
		clock:    clock,
		hourUTC:  hourUTC,
		stop:     make(chan struct{}),
	}
}

// Start launches the background loop: a warm sweep immediately, then one
// run per day at the configured hour.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
	log.WithField("hour_utc", s.hourUTC).Info("Expiration sweeper started")
}

// Stop terminates the background loop and waits for an in-flight sweep
// to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	log.Info("Expiration sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Warm sweep so vehicles that lapsed while the process was down are
	// caught at startup rather than at the next daily boundary.
	s.RunNow(context.Background())

	for {
		wait := s.nextRun().Sub(s.clock.Now().UTC())
		select {
		case <-s.clock.After(wait):
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// nextRun returns the next daily boundary strictly after now.
func (s *Sweeper) nextRun() time.Time {
	now := s.clock.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunNow executes a single sweep. If a sweep is already in flight the
// call is skipped; two sweeps never run concurrently. A persistence
// error ends the run without retry.
func (s *Sweeper) RunNow(ctx context.Context) (Result, bool) {
	if !s.inFlight.TryLock() {
		log.Warn("Sweep already in flight, skipping tick")
		return Result{}, false
	}
	defer s.inFlight.Unlock()

	now := s.clock.Now().UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	result := Result{
		RunID: uuid.NewString(),
		AsOf:  asOf,
	}

	started := s.clock.Now()
	expired, err := s.vehicles.ExpireDue(ctx, asOf)
	result.Duration = s.clock.Now().Sub(started)

	if err != nil {
		// No retry: the predicate is state-based, the next run catches
		// anything this one missed.
		log.WithError(err).WithField("run_id", result.RunID).Error("Sweep failed")
		return result, false
	}

	result.Expired = expired
	log.WithFields(log.Fields{
		"run_id":  result.RunID,
		"as_of":   asOf.Format("2006-01-02"),
		"expired": expired,
	}).Info("Sweep completed")

	if s.notifier != nil && expired > 0 {
		s.notifier.PublishSweep(result)
	}
	return result, true
}
