// internal/models/task.go
package models

import "time"

// TaskStatus defines the columns of the task board.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Item is an entry of a task's subtasks or checklists. Items live inside the
// task document and are only changed by rewriting the whole sequence.
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ItemList names one of the embedded item sequences of a task.
type ItemList string

const (
	Subtasks   ItemList = "subtasks"
	Checklists ItemList = "checklists"
)

func (l ItemList) Valid() bool {
	return l == Subtasks || l == Checklists
}

// Task represents the structure of a task in the system.
type Task struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     string       `json:"dueDate,omitempty"`
	Labels      []string     `json:"labels"`
	Subtasks    []Item       `json:"subtasks"`
	Checklists  []Item       `json:"checklists"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Items returns the embedded sequence named by list.
func (t *Task) Items(list ItemList) []Item {
	if list == Checklists {
		return t.Checklists
	}
	return t.Subtasks
}

// TaskFields are the user-editable fields of a task, as produced by TaskForm.
type TaskFields struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssignedTo  string       `json:"assignedTo"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     string       `json:"dueDate"`
	Labels      []string     `json:"labels"`
}

// Patch turns a full form submission into a patch that sets every field.
func (f TaskFields) Patch() TaskPatch {
	labels := f.Labels
	return TaskPatch{
		Title:       &f.Title,
		Description: &f.Description,
		AssignedTo:  &f.AssignedTo,
		Priority:    &f.Priority,
		Status:      &f.Status,
		DueDate:     &f.DueDate,
		Labels:      &labels,
	}
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	AssignedTo  *string       `json:"assignedTo,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	DueDate     *string       `json:"dueDate,omitempty"`
	Labels      *[]string     `json:"labels,omitempty"`
	Subtasks    *[]Item       `json:"subtasks,omitempty"`
	Checklists  *[]Item       `json:"checklists,omitempty"`
}

// Fields returns the store representation of the set fields only.
func (p TaskPatch) Fields() map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.AssignedTo != nil {
		out["assignedTo"] = *p.AssignedTo
	}
	if p.Priority != nil {
		out["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.DueDate != nil {
		out["dueDate"] = *p.DueDate
	}
	if p.Labels != nil {
		out["labels"] = nonNil(*p.Labels)
	}
	if p.Subtasks != nil {
		out["subtasks"] = nonNil(*p.Subtasks)
	}
	if p.Checklists != nil {
		out["checklists"] = nonNil(*p.Checklists)
	}
	return out
}

// WithItems returns a patch that rewrites the named embedded sequence.
func WithItems(list ItemList, items []Item) TaskPatch {
	if list == Checklists {
		return TaskPatch{Checklists: &items}
	}
	return TaskPatch{Subtasks: &items}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
