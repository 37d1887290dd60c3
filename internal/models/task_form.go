package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// TaskForm is the raw input of the task editor, used for both create and
// edit. Labels are entered as one comma separated string.
type TaskForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	Labels      string `json:"labels"`
}

// TaskFormFrom fills the form with an existing task for edit mode.
func TaskFormFrom(t Task) TaskForm {
	return TaskForm{
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		Labels:      strings.Join(t.Labels, ", "),
	}
}

// Submit validates the form. A blank assignee defaults to currentUserID.
func (f TaskForm) Submit(currentUserID string) (TaskFields, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return TaskFields{}, Invalid("title", "task title is required")
	}

	priority := TaskPriority(strings.TrimSpace(f.Priority))
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return TaskFields{}, Invalid("priority", "must be one of low, medium, high")
	}

	status := TaskStatus(strings.TrimSpace(f.Status))
	if status == "" {
		status = StatusTodo
	}
	if !status.Valid() {
		return TaskFields{}, Invalid("status", "must be one of todo, in_progress, review, done")
	}

	due := strings.TrimSpace(f.DueDate)
	if due != "" {
		if _, err := time.Parse(DateLayout, due); err != nil {
			return TaskFields{}, Invalid("dueDate", "must be a date in YYYY-MM-DD format")
		}
	}

	assignee := strings.TrimSpace(f.AssignedTo)
	if assignee == "" {
		assignee = currentUserID
	}

	return TaskFields{
		Title:       title,
		Description: strings.TrimSpace(f.Description),
		AssignedTo:  assignee,
		Priority:    priority,
		Status:      status,
		DueDate:     due,
		Labels:      ParseLabels(f.Labels),
	}, nil
}

// ParseLabels splits raw on commas, trims each label and drops empty ones.
func ParseLabels(raw string) []string {
	labels := []string{}
	for _, part := range strings.Split(raw, ",") {
		if l := strings.TrimSpace(part); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
