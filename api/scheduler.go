/*
scheduler.go - Automated year-roll scheduler

PURPOSE:
  Periodically provisions next-year balances so every employee has a
  fresh entitlement row before January 1st, without an operator calling
  the admin endpoint by hand.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - During December, provisions the upcoming year for every employee
  - Also backfills the current year for employees added mid-year
  - Idempotent: a year that already has a balance is skipped
    (AddBalanceForNewYear fails with ErrBalanceExists)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewYearRollScheduler(store, service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: AddYearBalance endpoint (manual provisioning)
  - leave/ledger.go: AddBalanceForNewYear
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// YearRollScheduler provisions yearly balances in the background.
type YearRollScheduler struct {
	Store         *sqlite.Store
	Service       *leave.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewYearRollScheduler creates a new scheduler.
func NewYearRollScheduler(store *sqlite.Store, service *leave.Service) *YearRollScheduler {
	return &YearRollScheduler{
		Store:         store,
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ys *YearRollScheduler) Start() {
	ys.mu.Lock()
	defer ys.mu.Unlock()

	if !ys.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ys.ticker = time.NewTicker(ys.CheckInterval)
	ys.wg.Add(1)

	go ys.run()

	log.Printf("[Scheduler] Started with check interval: %v", ys.CheckInterval)
}

// Stop stops the scheduler.
func (ys *YearRollScheduler) Stop() {
	ys.mu.Lock()
	defer ys.mu.Unlock()

	if ys.ticker != nil {
		ys.ticker.Stop()
		close(ys.stop)
		ys.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ys *YearRollScheduler) run() {
	defer ys.wg.Done()

	// Run immediately on start
	ys.checkAndProvision()

	for {
		select {
		case <-ys.ticker.C:
			ys.checkAndProvision()
		case <-ys.stop:
			return
		}
	}
}

func (ys *YearRollScheduler) checkAndProvision() {
	ctx := context.Background()
	now := ys.Service.Now()

	years := []int{now.Year()}
	if now.Time.Month() == time.December {
		// Provision the upcoming year ahead of the boundary.
		years = append(years, now.Year()+1)
	}

	employees, err := ys.Store.ListEmployees(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing employees: %v", err)
		return
	}

	provisioned := 0
	skipped := 0

	for _, emp := range employees {
		for _, year := range years {
			bal := &leave.Balance{EmployeeID: emp.ID, Year: year}
			err := ys.Service.Ledger.AddBalanceForNewYear(ctx, bal)
			switch {
			case err == nil:
				provisioned++
			case errors.Is(err, leave.ErrBalanceExists):
				skipped++
			default:
				log.Printf("[Scheduler] Error provisioning %s/%d: %v", emp.ID, year, err)
			}
		}
	}

	if provisioned > 0 {
		log.Printf("[Scheduler] Completed: %d provisioned, %d skipped (already present)", provisioned, skipped)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ys *YearRollScheduler) RunNow() {
	ys.checkAndProvision()
}

// NextRunTime returns when the next scheduled check will occur.
func (ys *YearRollScheduler) NextRunTime() time.Time {
	return time.Now().Add(ys.CheckInterval)
}
