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

// Messages shown by addProject
const (
	MsgProjectLoginRequired  = "Vous devez être connecté pour créer un projet"
	MsgProjectNoOrg          = "Aucune organisation trouvée"
	MsgProjectTitleMissing   = "Le titre du projet est requis"
	MsgProjectStartMissing   = "La date de début est requise"
	MsgProjectEndMissing     = "La date de fin est requise"
	MsgProjectEndBeforeStart = "La date de fin doit être postérieure à la date de début"
	MsgProjectManager        = "Un responsable de projet est requis"
	MsgProjectStatus         = "Le statut doit être en planification, actif, en attente, terminé ou annulé"
	MsgProjectPriority       = "La priorité doit être basse, moyenne ou haute"
	MsgProjectFailed         = "Une erreur est survenue lors de la création du projet"
)

var projectStatuses = []string{
	repository.ProjectPlanning,
	repository.ProjectActive,
	repository.ProjectOnHold,
	repository.ProjectCompleted,
	repository.ProjectCancelled,
}

// ProjectPayload is the new project form
type ProjectPayload struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	ProjectManager string   `json:"projectManager"`
	Members        []string `json:"members"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
}

// ProjectPayloadFromForm reads the new project form fields, applying the
// status and priority defaults.
func ProjectPayloadFromForm(form url.Values) ProjectPayload {
	p := ProjectPayload{
		Title:          strings.TrimSpace(form.Get("title")),
		Description:    form.Get("description"),
		StartDate:      strings.TrimSpace(form.Get("startDate")),
		EndDate:        strings.TrimSpace(form.Get("endDate")),
		ProjectManager: form.Get("projectManager"),
		Members:        form["members"],
		Status:         form.Get("status"),
		Priority:       form.Get("priority"),
	}
	if p.Status == "" {
		p.Status = repository.ProjectPlanning
	}
	if p.Priority == "" {
		p.Priority = repository.PriorityMedium
	}
	return p
}

// Validate will validate the payload
func (p ProjectPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required.Error(MsgProjectTitleMissing)),
		validation.Field(&p.StartDate,
			validation.Required.Error(MsgProjectStartMissing),
			validation.By(validDate(MsgProjectStartMissing)),
		),
		validation.Field(&p.EndDate,
			validation.Required.Error(MsgProjectEndMissing),
			validation.By(validDate(MsgProjectEndMissing)),
			validation.By(notBefore(p.StartDate)),
		),
		validation.Field(&p.ProjectManager, validation.By(positiveIDMessage(MsgProjectManager))),
		validation.Field(&p.Members, validation.By(eachPositiveID("members"))),
		validation.Field(&p.Status, validation.In(stringsToAny(projectStatuses...)...).Error(MsgProjectStatus)),
		validation.Field(&p.Priority, validation.In(stringsToAny(taskPriorities...)...).Error(MsgProjectPriority)),
	)
}

// Project converts a validated payload
func (p ProjectPayload) Project(orgID, createdBy int64, now time.Time) (*repository.Project, int64, []int64) {
	start, _ := parseDate(p.StartDate)
	end, _ := parseDate(p.EndDate)

	project := &repository.Project{
		Name:        p.Title,
		Description: p.Description,
		OrgID:       orgID,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		StartDate:   start,
		EndDate:     end,
		Status:      p.Status,
	}

	manager, _ := parseID(p.ProjectManager)

	members := make([]int64, 0, len(p.Members))
	for _, raw := range p.Members {
		if id, err := parseID(raw); err == nil {
			members = append(members, id)
		}
	}

	return project, manager, members
}

// AddProject creates a project in the user's organization
func (h *Handlers) AddProject(ctx context.Context, in taskdesk.ActionInput) (any, error) {
	if in.User == nil {
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgProjectLoginRequired)
	}

	payload := ProjectPayloadFromForm(in.Form)
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	orgID, err := h.orgID(ctx, in.User)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgProjectNoOrg)
		}
		h.logger.Error("add project: organization lookup", "error", err)
		return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgProjectFailed)
	}

	project, manager, members := payload.Project(orgID, in.User.UserID, time.Now())

	created, rows, err := h.store.CreateProject(ctx, project, manager, members)
	if err != nil {
		h.logger.Error("add project: create", "error", err)
		return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgProjectFailed)
	}

	return map[string]any{"success": true, "project": created, "members": rows}, nil
}

func notBefore(start string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		from, err := parseDate(start)
		if err != nil {
			return nil
		}
		to, err := parseDate(s)
		if err != nil {
			return nil
		}
		if to.Before(from) {
			return errors.New(MsgProjectEndBeforeStart)
		}
		return nil
	}
}

func positiveIDMessage(message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		id, err := parseID(s)
		if err != nil || id <= 0 {
			return errors.New(message)
		}
		return nil
	}
}

func eachPositiveID(field string) validation.RuleFunc {
	check := positiveID(field)
	return func(value interface{}) error {
		ids, _ := value.([]string)
		for _, id := range ids {
			if err := check(id); err != nil {
				return err
			}
		}
		return nil
	}
}
