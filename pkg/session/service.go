package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/kv"
	"github.com/aretw0/parley/pkg/ports"
)

const (
	// DefaultDeadline applies when task.deadline_time is absent or unreadable.
	DefaultDeadline = "21:00"
	// DefaultStart applies when task.start_time is absent or unreadable.
	DefaultStart = "09:00"

	timestampLayout = "2006-01-02 15:04"
)

// Facts is the snapshot written by Initialize.
type Facts struct {
	Today           string `json:"today"`
	IsNewDay        bool   `json:"isNewDay"`
	TotalVisitCount int64  `json:"totalVisitCount"`
	VisitCount      int64  `json:"visitCount"`
	TimeOfDay       int64  `json:"timeOfDay"`
	IsWeekend       bool   `json:"isWeekend"`

	TaskStatus     domain.TaskStatus `json:"taskStatus"`
	Archived       bool              `json:"archived"`
	Escalated      bool              `json:"escalated"`
	IsActiveDay    bool              `json:"isActiveDay"`
	IsBeforeStart  bool              `json:"isBeforeStart"`
	IsInTimeRange  bool              `json:"isInTimeRange"`
	IsPastDeadline bool              `json:"isPastDeadline"`
	IsPastEndDate  bool              `json:"isPastEndDate"`
	DueDay         int64             `json:"dueDay"`
	EndDate        string            `json:"endDate"`
}

// Service owns the session.* and task.* keys of a store.
type Service struct {
	store  ports.KeyValueStore
	clock  Clock
	logger *slog.Logger

	assumeActive    bool
	defaultDeadline string
	defaultStart    string
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAssumeActiveWhenUnconfigured decides task.isActiveDay when task.active_days is
// absent or empty. The default is true.
func WithAssumeActiveWhenUnconfigured(assume bool) Option {
	return func(s *Service) {
		s.assumeActive = assume
	}
}

// WithDefaultWindow overrides the start and deadline used when the store has none.
// Invalid values are ignored.
func WithDefaultWindow(start, deadline string) Option {
	return func(s *Service) {
		if _, err := parseClockTime(start); err == nil {
			s.defaultStart = start
		}
		if _, err := parseClockTime(deadline); err == nil {
			s.defaultDeadline = deadline
		}
	}
}

// New creates a Service over store.
func New(store ports.KeyValueStore, opts ...Option) *Service {
	s := &Service{
		store:           store,
		clock:           SystemClock,
		logger:          logging.NewNop(),
		assumeActive:    true,
		defaultDeadline: DefaultDeadline,
		defaultStart:    DefaultStart,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize updates visit counters and task state for the current moment.
// Calling it twice on the same day only bumps the counters.
func (s *Service) Initialize(ctx context.Context) (*Facts, error) {
	now := s.clock.Now()
	facts := &Facts{Today: now.Format(dateLayout)}

	if err := s.updateVisits(ctx, now, facts); err != nil {
		return nil, err
	}
	if err := s.updateTask(ctx, now, facts); err != nil {
		return nil, err
	}
	if err := s.updateDerived(ctx, now, facts); err != nil {
		return nil, err
	}

	s.logger.Debug("session initialized",
		"today", facts.Today,
		"new_day", facts.IsNewDay,
		"visits", facts.TotalVisitCount,
		"task_status", facts.TaskStatus,
	)
	return facts, nil
}

func (s *Service) updateVisits(ctx context.Context, now time.Time, facts *Facts) error {
	total, _ := kv.Int(ctx, s.store, domain.KeySessionTotalVisitCount)
	facts.TotalVisitCount = total + 1

	last, _ := kv.String(ctx, s.store, domain.KeySessionLastVisitDate)
	facts.IsNewDay = last != facts.Today
	if facts.IsNewDay {
		facts.VisitCount = 1
	} else {
		visits, _ := kv.Int(ctx, s.store, domain.KeySessionVisitCount)
		facts.VisitCount = visits + 1
	}

	facts.TimeOfDay = timeOfDay(now.Hour())
	facts.IsWeekend = now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	return s.setAll(ctx, map[string]any{
		domain.KeySessionTotalVisitCount: facts.TotalVisitCount,
		domain.KeySessionVisitCount:      facts.VisitCount,
		domain.KeySessionLastVisitDate:   facts.Today,
		domain.KeySessionTimeOfDay:       facts.TimeOfDay,
		domain.KeySessionIsWeekend:       facts.IsWeekend,
	})
}

// updateTask rolls the task over to today and escalates it past the deadline.
func (s *Service) updateTask(ctx context.Context, now time.Time, facts *Facts) error {
	raw, _ := kv.String(ctx, s.store, domain.KeyTaskStatus)
	status := domain.TaskStatus(raw)
	if !status.Valid() {
		if raw != "" {
			s.logger.Warn("ignoring unknown task status", "status", raw)
		}
		facts.TaskStatus = status
		return nil
	}

	taskDate, _ := kv.String(ctx, s.store, domain.KeyTaskCurrentDate)
	switch {
	case taskDate == "":
		if err := s.store.Set(ctx, domain.KeyTaskCurrentDate, facts.Today); err != nil {
			return err
		}
	case taskDate != facts.Today:
		next, err := s.rollover(ctx, status, taskDate, facts)
		if err != nil {
			return err
		}
		status = next
	}

	if status == domain.TaskPending {
		deadline, err := s.deadline(ctx)
		if err != nil {
			return err
		}
		if !now.Before(deadline.on(now)) {
			status = domain.TaskOverdue
			facts.Escalated = true
			err := s.setAll(ctx, map[string]any{
				domain.KeyTaskStatus:           string(status),
				domain.KeyTaskAutoUpdateReason: "current_day: pending → overdue (deadline_passed)",
				domain.KeyTaskLastAutoUpdate:   now.Format(timestampLayout),
			})
			if err != nil {
				return err
			}
			s.logger.Info("task escalated", "from", domain.TaskPending, "to", domain.TaskOverdue, "deadline", deadline)
		}
	}

	facts.TaskStatus = status
	return nil
}

// rollover moves a task from a previous day to today. Only a set task that is still
// pending is archived; overdue tasks stay as they are.
func (s *Service) rollover(ctx context.Context, status domain.TaskStatus, taskDate string, facts *Facts) (domain.TaskStatus, error) {
	values := map[string]any{}
	switch status {
	case domain.TaskOverdue:
		return status, nil
	case domain.TaskPending:
		task, hasTask, err := s.store.Get(ctx, domain.KeyUserTask)
		if err != nil {
			return status, err
		}
		if !hasTask {
			break
		}
		values[domain.KeyTaskPreviousDate] = taskDate
		values[domain.KeyTaskPreviousStatus] = string(domain.TaskPending)
		values[domain.KeyTaskPreviousTask] = task
		facts.Archived = true
	}
	values[domain.KeyTaskStatus] = string(domain.TaskPending)
	values[domain.KeyTaskCurrentDate] = facts.Today

	if err := s.setAll(ctx, values); err != nil {
		return status, err
	}
	s.logger.Info("task rolled over", "from_date", taskDate, "previous_status", status, "archived", facts.Archived)
	return domain.TaskPending, nil
}

func (s *Service) updateDerived(ctx context.Context, now time.Time, facts *Facts) error {
	start, err := s.start(ctx)
	if err != nil {
		return err
	}
	deadline, err := s.deadline(ctx)
	if err != nil {
		return err
	}

	facts.IsPastDeadline = !now.Before(deadline.on(now))
	facts.IsBeforeStart = !facts.IsPastDeadline && now.Before(start.on(now))
	facts.IsInTimeRange = !facts.IsPastDeadline && !facts.IsBeforeStart

	active, err := s.activeDays(ctx)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		facts.IsActiveDay = s.assumeActive
	} else {
		facts.IsActiveDay = active[isoWeekday(now)]
	}

	previousEnd, _ := kv.String(ctx, s.store, domain.KeyTaskEndDate)
	if end, err := time.ParseInLocation(dateLayout, previousEnd, now.Location()); err == nil {
		facts.IsPastEndDate = end.Format(dateLayout) < facts.Today
	}
	facts.EndDate = nextActiveDate(now, active).Format(dateLayout)

	taskDate, _ := kv.String(ctx, s.store, domain.KeyTaskCurrentDate)
	if d, err := time.ParseInLocation(dateLayout, taskDate, now.Location()); err == nil {
		facts.DueDay = int64(isoWeekday(d))
	}

	return s.setAll(ctx, map[string]any{
		domain.KeyTaskIsActiveDay:    facts.IsActiveDay,
		domain.KeyTaskIsBeforeStart:  facts.IsBeforeStart,
		domain.KeyTaskIsInTimeRange:  facts.IsInTimeRange,
		domain.KeyTaskIsPastDeadline: facts.IsPastDeadline,
		domain.KeyTaskIsPastEndDate:  facts.IsPastEndDate,
		domain.KeyTaskDueDay:         facts.DueDay,
		domain.KeyTaskEndDate:        facts.EndDate,
	})
}

// deadline reads task.deadline_time, migrating the legacy integer form in place.
func (s *Service) deadline(ctx context.Context) (clockTime, error) {
	raw, found, err := s.store.Get(ctx, domain.KeyTaskDeadlineTime)
	if err != nil {
		return clockTime{}, err
	}
	fallback, _ := parseClockTime(s.defaultDeadline)
	if !found {
		return fallback, nil
	}

	if n, ok := raw.(int64); ok {
		migrated, known := legacyDeadlines[n]
		if !known {
			s.logger.Warn("unknown legacy deadline, using default", "value", n)
			return fallback, nil
		}
		if err := s.store.Set(ctx, domain.KeyTaskDeadlineTime, migrated); err != nil {
			return clockTime{}, err
		}
		s.logger.Info("migrated legacy deadline", "from", n, "to", migrated)
		raw = migrated
	}

	str, _ := raw.(string)
	ct, err := parseClockTime(str)
	if err != nil {
		s.logger.Warn("invalid deadline, using default", "value", raw, "err", err)
		return fallback, nil
	}
	return ct, nil
}

func (s *Service) start(ctx context.Context) (clockTime, error) {
	fallback, _ := parseClockTime(s.defaultStart)
	raw, found, err := s.store.Get(ctx, domain.KeyTaskStartTime)
	if err != nil || !found {
		return fallback, err
	}
	str, _ := raw.(string)
	ct, perr := parseClockTime(str)
	if perr != nil {
		s.logger.Warn("invalid start time, using default", "value", raw, "err", perr)
		return fallback, nil
	}
	return ct, nil
}

// activeDays reads task.active_days as a set of ISO weekdays. Unreadable entries are skipped.
func (s *Service) activeDays(ctx context.Context) (map[int]bool, error) {
	raw, found, err := s.store.Get(ctx, domain.KeyTaskActiveDays)
	if err != nil || !found {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	active := make(map[int]bool, len(list))
	for _, item := range list {
		if wd, ok := parseWeekday(item); ok {
			active[wd] = true
		} else {
			s.logger.Warn("ignoring invalid active day", "value", item)
		}
	}
	return active, nil
}

// AssignTask sets today's task and resets its status to pending.
func (s *Service) AssignTask(ctx context.Context, task string) error {
	return s.setAll(ctx, map[string]any{
		domain.KeyUserTask:        task,
		domain.KeyTaskStatus:      string(domain.TaskPending),
		domain.KeyTaskCurrentDate: s.clock.Now().Format(dateLayout),
	})
}

// CompleteTask marks the current task completed. This is the way out of overdue.
func (s *Service) CompleteTask(ctx context.Context) error {
	return s.resolveTask(ctx, domain.TaskCompleted)
}

// FailTask marks the current task failed.
func (s *Service) FailTask(ctx context.Context) error {
	return s.resolveTask(ctx, domain.TaskFailed)
}

func (s *Service) resolveTask(ctx context.Context, to domain.TaskStatus) error {
	from, _ := kv.String(ctx, s.store, domain.KeyTaskStatus)
	now := s.clock.Now()
	return s.setAll(ctx, map[string]any{
		domain.KeyTaskStatus:           string(to),
		domain.KeyTaskAutoUpdateReason: fmt.Sprintf("user: %s → %s", from, to),
		domain.KeyTaskLastAutoUpdate:   now.Format(timestampLayout),
	})
}

// SetEndState records whether the conversation reached a dead end.
func (s *Service) SetEndState(ctx context.Context, atEnd bool) error {
	return s.store.Set(ctx, domain.KeySessionEndState, atEnd)
}

// IsAtEndState reports the end-state flag. A missing or unreadable flag is false.
func (s *Service) IsAtEndState(ctx context.Context) bool {
	v, _ := kv.Bool(ctx, s.store, domain.KeySessionEndState)
	return v
}

// ClearEndState removes the end-state flag.
func (s *Service) ClearEndState(ctx context.Context) error {
	return s.store.Delete(ctx, domain.KeySessionEndState)
}

// setAll writes values one key at a time; the store contract has no batch write.
func (s *Service) setAll(ctx context.Context, values map[string]any) error {
	for k, v := range values {
		if err := s.store.Set(ctx, k, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	return nil
}
