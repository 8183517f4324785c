// Package scheduler runs the persona's recurring tasks: transmission
// checks, nightly maintenance, fortune refresh, relationship decay, and
// memory summarization.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/syui/aigpt/internal/persona"
	"github.com/syui/aigpt/internal/store"
	"github.com/syui/aigpt/internal/transmission"
)

// Handler executes one task type.
type Handler func(ctx context.Context, task *store.Task) error

// Scheduler owns the persisted task registry and the run loop.
type Scheduler struct {
	db         *store.DB
	persona    *persona.Engine
	controller *transmission.Controller

	// Deliverer is the external delivery collaborator used by the
	// transmission check handler. When nil, composed messages are
	// logged and recorded as delivered.
	Deliverer transmission.Deliverer

	// Now is overridable for tests.
	Now func() time.Time

	handlers map[string]Handler
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler with the built-in handlers registered.
func New(db *store.DB, p *persona.Engine, c *transmission.Controller) *Scheduler {
	s := &Scheduler{
		db:         db,
		persona:    p,
		controller: c,
		Now:        time.Now,
		handlers:   make(map[string]Handler),
		stopCh:     make(chan struct{}),
	}
	s.handlers[store.TaskTransmissionCheck] = s.handleTransmissionCheck
	s.handlers[store.TaskMaintenance] = s.handleMaintenance
	s.handlers[store.TaskFortuneUpdate] = s.handleFortuneUpdate
	s.handlers[store.TaskRelationshipDecay] = s.handleRelationshipDecay
	s.handlers[store.TaskMemorySummary] = s.handleMemorySummary
	return s
}

// RegisterHandler installs a handler for custom tasks.
func (s *Scheduler) RegisterHandler(taskType string, h Handler) {
	s.handlers[taskType] = h
}

// Add validates and persists a new scheduled task.
func (s *Scheduler) Add(taskType, schedule string, metadata map[string]any) (*store.Task, error) {
	if _, ok := s.handlers[taskType]; !ok && taskType != store.TaskCustom {
		return nil, fmt.Errorf("unknown task type: %q", taskType)
	}
	trigger, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}

	next := trigger.Next(s.Now()).UnixMilli()
	task := &store.Task{
		TaskID:   taskType + "_" + ulid.Make().String(),
		TaskType: taskType,
		Schedule: schedule,
		Enabled:  true,
		NextRun:  &next,
		Metadata: metadata,
	}
	if err := s.db.PutTask(task); err != nil {
		return nil, fmt.Errorf("persist task: %w", err)
	}
	log.Printf("added task %s with schedule %s", task.TaskID, schedule)
	return task, nil
}

// Enable turns a task on. Idempotent; missing tasks are a no-op.
func (s *Scheduler) Enable(taskID string) error {
	return s.setEnabled(taskID, true)
}

// Disable turns a task off. In-flight runs are allowed to complete.
func (s *Scheduler) Disable(taskID string) error {
	return s.setEnabled(taskID, false)
}

func (s *Scheduler) setEnabled(taskID string, enabled bool) error {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	task.Enabled = enabled
	if enabled {
		trigger, err := ParseSchedule(task.Schedule)
		if err != nil {
			return fmt.Errorf("re-enable %s: %w", taskID, err)
		}
		next := trigger.Next(s.Now()).UnixMilli()
		task.NextRun = &next
	}
	return s.db.PutTask(task)
}

// Remove deletes a task. Idempotent.
func (s *Scheduler) Remove(taskID string) error {
	return s.db.DeleteTask(taskID)
}

// Tasks returns all registered tasks.
func (s *Scheduler) Tasks() ([]store.Task, error) {
	return s.db.ListTasks()
}

// EnsureDefaults registers the standard task set once. Stable ids keep
// this idempotent across restarts.
func (s *Scheduler) EnsureDefaults() error {
	defaults := []store.Task{
		{TaskID: "transmission_check_default", TaskType: store.TaskTransmissionCheck, Schedule: "30m"},
		{TaskID: "maintenance_default", TaskType: store.TaskMaintenance, Schedule: "0 3 * * *"},
		{TaskID: "fortune_update_default", TaskType: store.TaskFortuneUpdate, Schedule: "0 0 * * *"},
		{TaskID: "relationship_decay_default", TaskType: store.TaskRelationshipDecay, Schedule: "30 3 * * *"},
		{TaskID: "memory_summary_default", TaskType: store.TaskMemorySummary, Schedule: "0 2 * * *"},
	}
	for i := range defaults {
		existing, err := s.db.GetTask(defaults[i].TaskID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		trigger, err := ParseSchedule(defaults[i].Schedule)
		if err != nil {
			return fmt.Errorf("default schedule %s: %w", defaults[i].TaskID, err)
		}
		next := trigger.Next(s.Now()).UnixMilli()
		defaults[i].Enabled = true
		defaults[i].NextRun = &next
		if err := s.db.PutTask(&defaults[i]); err != nil {
			return err
		}
	}
	return nil
}

// Start runs the scheduling loop until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Printf("scheduler started")
	for {
		select {
		case <-ticker.C:
			s.RunDue(ctx)
		case <-s.stopCh:
			s.wg.Wait()
			return
		case <-ctx.Done():
			s.wg.Wait()
			return
		}
	}
}

// Stop shuts down the run loop. Tasks already dispatched complete.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// RunDue fires every enabled task whose next run time has passed.
// Run times advance before dispatch so a slow handler cannot double
// fire; handler failures are logged and never stop other tasks.
func (s *Scheduler) RunDue(ctx context.Context) {
	tasks, err := s.db.ListTasks()
	if err != nil {
		log.Printf("scheduler: list tasks: %v", err)
		return
	}

	now := s.Now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled || task.NextRun == nil || *task.NextRun > now.UnixMilli() {
			continue
		}

		trigger, err := ParseSchedule(task.Schedule)
		if err != nil {
			log.Printf("scheduler: task %s has bad schedule %q: %v", task.TaskID, task.Schedule, err)
			continue
		}

		last := now.UnixMilli()
		next := trigger.Next(now).UnixMilli()
		task.LastRun = &last
		task.NextRun = &next
		if err := s.db.PutTask(&task); err != nil {
			log.Printf("scheduler: persist task %s: %v", task.TaskID, err)
			continue
		}

		handler, ok := s.handlers[task.TaskType]
		if !ok {
			log.Printf("scheduler: no handler for task type %s", task.TaskType)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("scheduler: task %s panicked: %v", task.TaskID, r)
				}
			}()
			if err := handler(ctx, &task); err != nil {
				log.Printf("scheduler: task %s failed: %v", task.TaskID, err)
			}
		}()
	}
}

func (s *Scheduler) handleTransmissionCheck(ctx context.Context, task *store.Task) error {
	eligible, err := s.controller.CheckEligibility()
	if err != nil {
		return err
	}

	for userID, rel := range eligible {
		message, err := s.controller.ComposeMessage(userID)
		if err != nil {
			log.Printf("compose for %s: %v", userID, err)
			continue
		}
		if message == "" {
			continue
		}

		success := true
		if s.Deliverer != nil {
			if err := s.Deliverer.Deliver(ctx, userID, message); err != nil {
				log.Printf("deliver to %s failed: %v", userID, err)
				success = false
			}
		} else {
			log.Printf("transmission to %s (%s, score %.2f): %s", userID, rel.Status, rel.Score, message)
		}

		if err := s.controller.RecordAttempt(userID, message, success); err != nil {
			log.Printf("record attempt for %s: %v", userID, err)
		}
	}
	return nil
}

func (s *Scheduler) handleMaintenance(ctx context.Context, task *store.Task) error {
	return s.persona.DailyMaintenance(ctx)
}

func (s *Scheduler) handleFortuneUpdate(ctx context.Context, task *store.Task) error {
	f, err := s.persona.Fortune.Today()
	if err != nil {
		return err
	}
	log.Printf("fortune updated: %d/10", f.Value)
	return nil
}

func (s *Scheduler) handleRelationshipDecay(ctx context.Context, task *store.Task) error {
	return s.persona.Relationships.ApplyTimeDecay()
}

func (s *Scheduler) handleMemorySummary(ctx context.Context, task *store.Task) error {
	rels, err := s.persona.Relationships.List()
	if err != nil {
		return err
	}
	for _, rel := range rels {
		summary, err := s.persona.Memory.SummarizeRecent(ctx, rel.UserID)
		if err != nil {
			log.Printf("summary for %s: %v", rel.UserID, err)
			continue
		}
		if summary != nil {
			log.Printf("created memory summary for %s", rel.UserID)
		}
	}
	return nil
}
