package schedule

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/postalhub/letter-dispatch/internal/database"
)

// Scheduler drives the periodic pipeline tasks on a shared background
// goroutine pool, separate from request handling.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddLockedTask schedules a task guarded by the cross-instance lock. A tick
// that finds the lock held elsewhere is skipped; a failing run only aborts
// itself, the next tick retries from durable state.
func (s *Scheduler) AddLockedTask(name string, interval time.Duration, lock database.TaskLocker, taskID int32, run func() error) error {
	return s.add(interval, func() {
		ran, err := lock.Run(taskID, run)
		if err != nil {
			log.Printf("ERROR: %s task failed: %v", name, err)
			return
		}
		if !ran {
			log.Printf("%s task skipped: another instance holds the lock", name)
		}
	})
}

// AddTask schedules an unguarded task.
func (s *Scheduler) AddTask(name string, interval time.Duration, run func() error) error {
	return s.add(interval, func() {
		if err := run(); err != nil {
			log.Printf("ERROR: %s task failed: %v", name, err)
		}
	})
}

func (s *Scheduler) add(interval time.Duration, job func()) error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), job); err != nil {
		return fmt.Errorf("error scheduling task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels pending ticks and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
