package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-19 is a Monday.
func at(day, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", day+" "+clock, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func value(t *testing.T, store ports.KeyValueStore, path string) any {
	t.Helper()
	v, _, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	return v
}

func TestInitialize_Visits(t *testing.T) {
	store := memory.NewStore()
	clock := &movableClock{now: at("2026-10-19", "09:30")}
	svc := session.New(store, session.WithClock(clock))
	ctx := context.Background()

	facts, err := svc.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, facts.IsNewDay)
	assert.Equal(t, int64(1), facts.TotalVisitCount)
	assert.Equal(t, int64(1), facts.VisitCount)
	assert.Equal(t, int64(domain.Morning), value(t, store, domain.KeySessionTimeOfDay))
	assert.Equal(t, false, value(t, store, domain.KeySessionIsWeekend))

	clock.now = at("2026-10-19", "18:00")
	facts, err = svc.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, facts.IsNewDay)
	assert.Equal(t, int64(2), value(t, store, domain.KeySessionTotalVisitCount))
	assert.Equal(t, int64(2), value(t, store, domain.KeySessionVisitCount))
	assert.Equal(t, int64(domain.Evening), facts.TimeOfDay)

	clock.now = at("2026-10-24", "00:10")
	facts, err = svc.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, facts.IsNewDay)
	assert.Equal(t, int64(3), facts.TotalVisitCount)
	assert.Equal(t, int64(1), facts.VisitCount)
	assert.Equal(t, "2026-10-24", value(t, store, domain.KeySessionLastVisitDate))
	assert.Equal(t, true, value(t, store, domain.KeySessionIsWeekend))
	assert.Equal(t, int64(domain.Morning), facts.TimeOfDay)
}

func TestInitialize_TimeOfDayBuckets(t *testing.T) {
	tests := []struct {
		clock string
		want  int64
	}{
		{"00:00", domain.Morning},
		{"10:59", domain.Morning},
		{"11:00", domain.Afternoon},
		{"16:59", domain.Afternoon},
		{"17:00", domain.Evening},
		{"20:59", domain.Evening},
		{"21:00", domain.Night},
		{"23:59", domain.Night},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			svc := session.New(memory.NewStore(), session.WithClock(session.FixedClock(at("2026-10-19", tt.clock))))
			facts, err := svc.Initialize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, facts.TimeOfDay)
		})
	}
}

func TestInitialize_SameDayIsIdempotentForStatus(t *testing.T) {
	store := memory.NewStore()
	clock := &movableClock{now: at("2026-10-19", "10:00")}
	svc := session.New(store, session.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, svc.AssignTask(ctx, "Stretch"))
	_, err := svc.Initialize(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx))

	clock.now = at("2026-10-19", "22:00")
	facts, err := svc.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, facts.TaskStatus)
	assert.Equal(t, "completed", value(t, store, domain.KeyTaskStatus))
	assert.Equal(t, int64(2), value(t, store, domain.KeySessionTotalVisitCount))
}

func TestInitialize_DeadlineEscalation(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:       "pending",
		domain.KeyTaskCurrentDate:  "2026-10-19",
		domain.KeyTaskDeadlineTime: "06:00",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "06:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.Escalated)
	assert.Equal(t, "overdue", value(t, store, domain.KeyTaskStatus))
	assert.Contains(t, value(t, store, domain.KeyTaskAutoUpdateReason), "deadline_passed")
	assert.Equal(t, "current_day: pending → overdue (deadline_passed)", value(t, store, domain.KeyTaskAutoUpdateReason))
	assert.Equal(t, "2026-10-19 06:00", value(t, store, domain.KeyTaskLastAutoUpdate))
}

func TestInitialize_NoEscalationBeforeDeadline(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "pending",
		domain.KeyTaskCurrentDate: "2026-10-19",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "20:59"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, facts.Escalated)
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskStatus))
}

func TestInitialize_EscalationNeverTouchesResolvedTasks(t *testing.T) {
	for _, status := range []string{"completed", "failed"} {
		t.Run(status, func(t *testing.T) {
			store := memory.NewStore(map[string]any{
				domain.KeyTaskStatus:       status,
				domain.KeyTaskCurrentDate:  "2026-10-19",
				domain.KeyTaskDeadlineTime: "06:00",
			})
			svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "23:00"))))

			_, err := svc.Initialize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, status, value(t, store, domain.KeyTaskStatus))
		})
	}
}

func TestInitialize_OverdueIsNotRecoveredInTheMorning(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "overdue",
		domain.KeyTaskCurrentDate: "2026-10-18",
		domain.KeyUserTask:        "Stretch",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "07:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskOverdue, facts.TaskStatus)
	assert.False(t, facts.Archived)
	assert.Equal(t, "overdue", value(t, store, domain.KeyTaskStatus))
	assert.Nil(t, value(t, store, domain.KeyTaskPreviousDate))
}

func TestInitialize_NewDayArchivesPendingTask(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "pending",
		domain.KeyTaskCurrentDate: "2026-10-18",
		domain.KeyUserTask:        "Read 10 pages",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "10:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.Archived)
	assert.Equal(t, "2026-10-18", value(t, store, domain.KeyTaskPreviousDate))
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskPreviousStatus))
	assert.Equal(t, "Read 10 pages", value(t, store, domain.KeyTaskPreviousTask))
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskStatus))
	assert.Equal(t, "2026-10-19", value(t, store, domain.KeyTaskCurrentDate))
	assert.Equal(t, int64(1), value(t, store, domain.KeyTaskDueDay))
}

func TestInitialize_NewDayResetsResolvedTaskWithoutArchive(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "completed",
		domain.KeyTaskCurrentDate: "2026-10-18",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "10:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, facts.Archived)
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskStatus))
	assert.Equal(t, "2026-10-19", value(t, store, domain.KeyTaskCurrentDate))
	assert.Nil(t, value(t, store, domain.KeyTaskPreviousStatus))
}

func TestInitialize_NewDayWithoutTaskDoesNotArchive(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "pending",
		domain.KeyTaskCurrentDate: "2026-10-18",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "10:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, facts.Archived)
	for _, path := range []string{domain.KeyTaskPreviousDate, domain.KeyTaskPreviousStatus, domain.KeyTaskPreviousTask} {
		ok, err := store.Has(context.Background(), path)
		require.NoError(t, err)
		assert.False(t, ok, path)
	}
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskStatus))
	assert.Equal(t, "2026-10-19", value(t, store, domain.KeyTaskCurrentDate))
}

func TestInitialize_ArchiveThenEscalate(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "pending",
		domain.KeyTaskCurrentDate: "2026-10-18",
		domain.KeyUserTask:        "Stretch",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "21:30"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.Archived)
	assert.True(t, facts.Escalated)
	assert.Equal(t, "pending", value(t, store, domain.KeyTaskPreviousStatus), "archived status is not downgraded")
	assert.Equal(t, "overdue", value(t, store, domain.KeyTaskStatus))
}

func TestInitialize_LegacyDeadlineMigration(t *testing.T) {
	tests := []struct {
		legacy int
		want   string
	}{
		{1, "10:00"},
		{2, "14:00"},
		{3, "18:00"},
		{4, "23:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			store := memory.NewStore(map[string]any{domain.KeyTaskDeadlineTime: tt.legacy})
			svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "09:00"))))

			_, err := svc.Initialize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, value(t, store, domain.KeyTaskDeadlineTime))
		})
	}

	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:       "pending",
		domain.KeyTaskCurrentDate:  "2026-10-19",
		domain.KeyTaskDeadlineTime: 2,
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "15:00"))))
	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskOverdue, facts.TaskStatus)
}

func TestInitialize_TimeWindow(t *testing.T) {
	tests := []struct {
		clock                             string
		beforeStart, inRange, pastDeadline bool
	}{
		{"07:59", true, false, false},
		{"08:00", false, true, false},
		{"19:59", false, true, false},
		{"20:00", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			store := memory.NewStore(map[string]any{
				domain.KeyTaskStartTime:    "08:00",
				domain.KeyTaskDeadlineTime: "20:00",
			})
			svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", tt.clock))))

			facts, err := svc.Initialize(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.beforeStart, facts.IsBeforeStart)
			assert.Equal(t, tt.inRange, facts.IsInTimeRange)
			assert.Equal(t, tt.pastDeadline, facts.IsPastDeadline)
			assert.Equal(t, tt.pastDeadline, value(t, store, domain.KeyTaskIsPastDeadline))
		})
	}
}

func TestInitialize_DefaultWindow(t *testing.T) {
	svc := session.New(memory.NewStore(), session.WithClock(session.FixedClock(at("2026-10-19", "08:30"))))
	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.IsBeforeStart, "default start is 09:00")

	svc = session.New(memory.NewStore(),
		session.WithClock(session.FixedClock(at("2026-10-19", "08:30"))),
		session.WithDefaultWindow("08:00", "08:15"),
	)
	facts, err = svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.IsPastDeadline)
}

func TestInitialize_ActiveDays(t *testing.T) {
	monday := at("2026-10-19", "10:00")

	t.Run("unconfigured defaults to active", func(t *testing.T) {
		svc := session.New(memory.NewStore(), session.WithClock(session.FixedClock(monday)))
		facts, err := svc.Initialize(context.Background())
		require.NoError(t, err)
		assert.True(t, facts.IsActiveDay)
		assert.Equal(t, "2026-10-20", facts.EndDate, "tomorrow without active days")
	})

	t.Run("unconfigured strict policy", func(t *testing.T) {
		svc := session.New(memory.NewStore(map[string]any{domain.KeyTaskActiveDays: []any{}}),
			session.WithClock(session.FixedClock(monday)),
			session.WithAssumeActiveWhenUnconfigured(false),
		)
		facts, err := svc.Initialize(context.Background())
		require.NoError(t, err)
		assert.False(t, facts.IsActiveDay)
	})

	t.Run("configured", func(t *testing.T) {
		store := memory.NewStore(map[string]any{domain.KeyTaskActiveDays: []any{1, "wednesday"}})
		svc := session.New(store, session.WithClock(session.FixedClock(monday)))
		facts, err := svc.Initialize(context.Background())
		require.NoError(t, err)
		assert.True(t, facts.IsActiveDay)
		assert.Equal(t, "2026-10-19", facts.EndDate, "today is active")
		assert.Equal(t, true, value(t, store, domain.KeyTaskIsActiveDay))
	})

	t.Run("inactive today", func(t *testing.T) {
		store := memory.NewStore(map[string]any{domain.KeyTaskActiveDays: []any{5}})
		svc := session.New(store, session.WithClock(session.FixedClock(monday)))
		facts, err := svc.Initialize(context.Background())
		require.NoError(t, err)
		assert.False(t, facts.IsActiveDay)
		assert.Equal(t, "2026-10-23", facts.EndDate)
	})
}

func TestInitialize_PastEndDateAndDueDay(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskEndDate:     "2026-10-18",
		domain.KeyTaskCurrentDate: "not-a-date",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "10:00"))))

	facts, err := svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, facts.IsPastEndDate)
	assert.Equal(t, int64(0), facts.DueDay)
	assert.Equal(t, "2026-10-20", value(t, store, domain.KeyTaskEndDate))

	facts, err = svc.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, facts.IsPastEndDate)
}

func TestTaskResolution(t *testing.T) {
	store := memory.NewStore(map[string]any{
		domain.KeyTaskStatus:      "overdue",
		domain.KeyTaskCurrentDate: "2026-10-19",
	})
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "22:00"))))
	ctx := context.Background()

	require.NoError(t, svc.CompleteTask(ctx))
	assert.Equal(t, "completed", value(t, store, domain.KeyTaskStatus))
	assert.Equal(t, "user: overdue → completed", value(t, store, domain.KeyTaskAutoUpdateReason))

	require.NoError(t, svc.FailTask(ctx))
	assert.Equal(t, "failed", value(t, store, domain.KeyTaskStatus))
}

func TestEndState(t *testing.T) {
	store := memory.NewStore()
	svc := session.New(store, session.WithClock(session.FixedClock(at("2026-10-19", "10:00"))))
	ctx := context.Background()

	assert.False(t, svc.IsAtEndState(ctx))
	require.NoError(t, svc.SetEndState(ctx, true))
	assert.True(t, svc.IsAtEndState(ctx))

	_, err := svc.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, svc.IsAtEndState(ctx), "initialize leaves the end state alone")

	require.NoError(t, svc.ClearEndState(ctx))
	assert.False(t, svc.IsAtEndState(ctx))
}
