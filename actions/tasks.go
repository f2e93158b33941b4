package actions

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/repository"
)

// Messages shown by addTask
const (
	MsgTaskLoginRequired  = "Vous devez être connecté pour créer une tâche"
	MsgTaskTitleMissing   = "Le titre de la tâche est requis"
	MsgTaskUnknownUser    = "L'utilisateur assigné n'existe pas"
	MsgTaskUnknownProject = "Le projet n'existe pas"
	MsgTaskFailed         = "Une erreur est survenue lors de la création de la tâche"
	MsgTaskPriority       = "La priorité doit être basse, moyenne ou haute"
	MsgTaskStatus         = "Le statut doit être non commencé, en cours, en attente ou terminé"
	MsgTaskDueDate        = "La date d'échéance n'est pas valide"
)

var (
	taskPriorities = []string{repository.PriorityLow, repository.PriorityMedium, repository.PriorityHigh}
	taskStatuses   = []string{repository.TaskNotStarted, repository.TaskInProgress, repository.TaskWaiting, repository.TaskCompleted}
)

// TaskPayload is the new task form. Numeric fields are kept as submitted and
// converted once validated.
type TaskPayload struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	EstimatedHours   string `json:"estimatedHours"`
	ActualHours      string `json:"actualHours"`
	Labels           string `json:"labels"`
	Progress         string `json:"progress"`
	IsRecurring      bool   `json:"isRecurring"`
	RecurringPattern string `json:"recurringPattern"`
	DueDate          string `json:"dueDate"`
	AssignedTo       string `json:"assignedTo"`
	ProjectID        string `json:"projectId"`
}

// TaskPayloadFromForm reads the new task form fields
func TaskPayloadFromForm(form url.Values) TaskPayload {
	return TaskPayload{
		Title:            strings.TrimSpace(form.Get("title")),
		Description:      form.Get("description"),
		Priority:         form.Get("priority"),
		Status:           form.Get("status"),
		EstimatedHours:   form.Get("estimatedHours"),
		ActualHours:      form.Get("actualHours"),
		Labels:           form.Get("labels"),
		Progress:         form.Get("progress"),
		IsRecurring:      isChecked(form.Get("isRecurring")),
		RecurringPattern: form.Get("recurringPattern"),
		DueDate:          form.Get("dueDate"),
		AssignedTo:       form.Get("assignedTo"),
		ProjectID:        form.Get("projectId"),
	}
}

// Validate will validate the payload
func (p TaskPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required.Error(MsgTaskTitleMissing)),
		validation.Field(&p.Priority, validation.Required.Error(MsgTaskPriority), validation.In(stringsToAny(taskPriorities...)...).Error(MsgTaskPriority)),
		validation.Field(&p.Status, validation.Required.Error(MsgTaskStatus), validation.In(stringsToAny(taskStatuses...)...).Error(MsgTaskStatus)),
		validation.Field(&p.EstimatedHours, validation.By(numberBetween("estimatedHours", 0, 0))),
		validation.Field(&p.ActualHours, validation.By(numberBetween("actualHours", 0, 0))),
		validation.Field(&p.Progress, validation.By(numberBetween("progress", 0, 100))),
		validation.Field(&p.DueDate, validation.By(validDate(MsgTaskDueDate))),
		validation.Field(&p.AssignedTo, validation.By(positiveID("assignedTo"))),
		validation.Field(&p.ProjectID, validation.By(positiveID("projectId"))),
	)
}

// Task converts a validated payload into a task created by createdBy
func (p TaskPayload) Task(createdBy int64, now time.Time) *repository.Task {
	task := &repository.Task{
		Title:            p.Title,
		Description:      p.Description,
		Priority:         p.Priority,
		Status:           p.Status,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		DueDate:          now,
		Labels:           normalizeLabels(p.Labels),
		IsRecurring:      p.IsRecurring,
		RecurringPattern: p.RecurringPattern,
	}

	task.AssignedTo, _ = parseID(p.AssignedTo)
	task.ProjectID, _ = parseID(p.ProjectID)
	task.EstimatedHours, _ = parseNumber(p.EstimatedHours)
	task.ActualHours, _ = parseNumber(p.ActualHours)
	task.Progress, _ = parseNumber(p.Progress)

	if p.DueDate != "" {
		if due, err := parseDate(p.DueDate); err == nil {
			task.DueDate = due
		}
	}

	return task
}

// AddTask creates a task in one of the user's organization projects
func (h *Handlers) AddTask(ctx context.Context, in taskdesk.ActionInput) (any, error) {
	if in.User == nil {
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgTaskLoginRequired)
	}

	payload := TaskPayloadFromForm(in.Form)
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	task := payload.Task(in.User.UserID, time.Now())

	orgID, err := h.orgID(ctx, in.User)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgTaskUnknownProject)
		}
		return nil, h.taskFailed("load organization", err)
	}

	// Users of other organizations are reported as unknown.
	member, err := h.store.IsOrgMember(ctx, orgID, task.AssignedTo)
	if err != nil {
		return nil, h.taskFailed("load assignee", err)
	}
	if !member {
		return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgTaskUnknownUser)
	}

	project, err := h.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgTaskUnknownProject)
		}
		return nil, h.taskFailed("load project", err)
	}
	if project.OrgID != orgID {
		return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgTaskUnknownProject)
	}

	created, err := h.store.CreateTask(ctx, task)
	if err != nil {
		return nil, h.taskFailed("create task", err)
	}

	return map[string]any{"success": true, "task": created}, nil
}

func (h *Handlers) taskFailed(step string, err error) error {
	h.logger.Error("add task: "+step, "error", err)
	return taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgTaskFailed)
}
