package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses lists every status in declaration order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTaskStatus accepts any letter case.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid task status %q", raw)
	}
	return s, nil
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

func ParseTaskPriority(raw string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid task priority %q", raw)
	}
	return p, nil
}

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"type:varchar(100);not null" json:"title"`
	Description  string       `gorm:"type:varchar(1000)" json:"description"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO';index:idx_status" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM';index:idx_priority" json:"priority"`
	AssignedToID *uint64      `gorm:"index:idx_assigned_to" json:"assigned_to_id"`
	CreatedByID  uint64       `gorm:"<-:create;not null;index:idx_created_by" json:"created_by_id"`
	DueDate      *time.Time   `gorm:"index:idx_due_date" json:"due_date"`
	CreatedAt    time.Time    `gorm:"<-:create;not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime:false" json:"updated_at"`

	// Filled by the repository's joined reads.
	AssignedTo *UserSummary `gorm:"-" json:"assigned_to,omitempty"`
	CreatedBy  UserSummary  `gorm:"-" json:"created_by"`
}

// UserSummary is the minimal user view embedded in tasks.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IsOverdue reports whether the task is past due and still open at now.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}
