package models

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskAssigned  TaskStatus = "assigned"
	TaskPickedUp  TaskStatus = "picked_up"
	TaskEnRoute   TaskStatus = "en_route"
	TaskDelivered TaskStatus = "delivered"
	TaskCancelled TaskStatus = "cancelled"
)

// taskFlow is the forward-only lifecycle; cancelled sits outside it.
var taskFlow = map[TaskStatus]int{
	TaskPending:   0,
	TaskAssigned:  1,
	TaskPickedUp:  2,
	TaskEnRoute:   3,
	TaskDelivered: 4,
}

func (s TaskStatus) IsValid() bool {
	if s == TaskCancelled {
		return true
	}
	_, ok := taskFlow[s]
	return ok
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskDelivered || s == TaskCancelled
}

// CanTransition reports whether a task may move from s to next under the
// strict lifecycle: exactly one step forward, or cancellation from any
// non-terminal state.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == TaskCancelled {
		return true
	}
	return taskFlow[next] == taskFlow[s]+1
}
