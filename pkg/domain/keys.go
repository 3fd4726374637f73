package domain

// Well-known store paths maintained by the session service.
const (
	KeySessionTotalVisitCount = "session.totalVisitCount"
	KeySessionVisitCount      = "session.visitCount"
	KeySessionLastVisitDate   = "session.lastVisitDate"
	KeySessionTimeOfDay       = "session.timeOfDay"
	KeySessionIsWeekend       = "session.isWeekend"
	KeySessionEndState        = "session.isAtEndState"

	KeyUserTask = "user.task"

	KeyTaskStatus           = "task.current_status"
	KeyTaskCurrentDate      = "task.currentDate"
	KeyTaskStartTime        = "task.start_time"
	KeyTaskDeadlineTime     = "task.deadline_time"
	KeyTaskActiveDays       = "task.active_days"
	KeyTaskAutoUpdateReason = "task.auto_update_reason"
	KeyTaskLastAutoUpdate   = "task.last_auto_update"
	KeyTaskPreviousDate     = "task.previous_date"
	KeyTaskPreviousStatus   = "task.previous_status"
	KeyTaskPreviousTask     = "task.previous_task"

	KeyTaskIsActiveDay    = "task.isActiveDay"
	KeyTaskIsBeforeStart  = "task.isBeforeStart"
	KeyTaskIsInTimeRange  = "task.isInTimeRange"
	KeyTaskIsPastDeadline = "task.isPastDeadline"
	KeyTaskIsPastEndDate  = "task.isPastEndDate"
	KeyTaskDueDay         = "task.dueDay"
	KeyTaskEndDate        = "task.endDate"
)

// TaskStatus is the value domain of task.current_status.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskOverdue   TaskStatus = "overdue"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskOverdue, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// TimeOfDay buckets stored in session.timeOfDay.
const (
	Morning   = 1
	Afternoon = 2
	Evening   = 3
	Night     = 4
)
