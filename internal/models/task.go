package models

import (
	"fmt"
	"strings"
	"time"
)

type Priority int16

// Declaration order is the sort order.
const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = [...]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) IsValid() bool {
	return p >= 0 && int(p) < len(priorityNames)
}

func (p Priority) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("Priority(%d)", int16(p))
	}
	return priorityNames[p]
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid priority %d", int16(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	v, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type Status int16

// Declaration order is the sort order.
const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

var statusNames = [...]string{
	StatusPending:    "Pending",
	StatusInProgress: "InProgress",
	StatusCompleted:  "Completed",
}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if strings.EqualFold(name, s) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

func (s Status) IsValid() bool {
	return s >= 0 && int(s) < len(statusNames)
}

func (s Status) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Status(%d)", int16(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status %d", int16(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

const TaskTitleMaxLength = 200

type Task struct {
	ID          int64
	Title       string
	Description *string
	Priority    Priority
	DueDate     time.Time
	Status      Status
	UserID      int64
}

type StatusCount struct {
	Status Status
	Count  int
}
