package server

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/actions"
	"github.com/goliatone/go-taskdesk/repository"
)

// formEcho lists the fields rendered back into a form after a failed action
var formEcho = []string{"email", "fullName", "companyName", "phone"}

func (s *Server) viewContext(c *fiber.Ctx, title string) fiber.Map {
	vc := fiber.Map{"title": title}

	if user, ok := taskdesk.CurrentUser(c); ok {
		vc["user"] = user
	}
	if aerr, ok := taskdesk.ActionErrorFrom(c); ok {
		vc["error"] = aerr
	}

	if c.Method() == fiber.MethodPost {
		for _, name := range formEcho {
			if v := c.FormValue(name); v != "" {
				vc[name] = v
			}
		}
	}

	return vc
}

func (s *Server) index(c *fiber.Ctx) error {
	return c.Render("index", s.viewContext(c, "TaskDesk"))
}

func (s *Server) page(view, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vc := s.viewContext(c, title)
		if _, failed := vc["error"]; failed {
			c.Status(fiber.StatusUnprocessableEntity)
		}
		return c.Render(view, vc)
	}
}

func (s *Server) dashboardPage(c *fiber.Ctx) error {
	vc := s.viewContext(c, "Tableau de bord")

	user, ok := taskdesk.CurrentUser(c)
	if !ok || s.dashboard == nil || !user.HasOrg() {
		return c.Render("dashboard", vc)
	}

	ctx := c.UserContext()

	projects, err := s.dashboard.ProjectsForOrg(ctx, *user.OrgID)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	tasks, err := s.dashboard.TasksForOrg(ctx, *user.OrgID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	vc["projects"] = projects
	vc["tasks"] = tasks

	return c.Render("dashboard", vc)
}

// actionResponse is the body of /_actions/:name
type actionResponse struct {
	Data  any                   `json:"data,omitempty"`
	Error *taskdesk.ActionError `json:"error,omitempty"`
}

func (s *Server) runAction(c *fiber.Ctx) error {
	name := c.Params("name")

	action, ok := s.actions[name]
	if !ok {
		aerr := taskdesk.NewActionError(taskdesk.CodeBadRequest, fmt.Sprintf("Action inconnue: %s", name))
		aerr.Action = name
		return c.Status(fiber.StatusNotFound).JSON(actionResponse{Error: aerr})
	}

	form, err := actionForm(c)
	if err != nil {
		aerr := taskdesk.NewActionError(taskdesk.CodeBadRequest, taskdesk.MessageInvalidForm)
		aerr.Action = name
		return c.Status(aerr.HTTPStatus()).JSON(actionResponse{Error: aerr})
	}

	auth := s.gate.Authenticate(c)

	data, err := s.invoke(c, action, taskdesk.ActionInput{
		Form:    form,
		Cookies: taskdesk.RequestFromFiber(c).Cookies,
		User:    auth.Claims,
	})
	if err != nil {
		aerr, ok := taskdesk.AsActionError(err)
		if !ok {
			s.logger.Error("action failed", "action", name, "error", err)
			aerr = taskdesk.NewActionError(taskdesk.CodeInternal, taskdesk.MessageOperationFailed)
		}
		aerr.Action = name
		return c.Status(aerr.HTTPStatus()).JSON(actionResponse{Error: aerr})
	}

	return c.JSON(actionResponse{Data: data})
}

func (s *Server) invoke(c *fiber.Ctx, action actions.JSONAction, in taskdesk.ActionInput) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return action(c.UserContext(), in)
}

// actionForm accepts url encoded, multipart and flat JSON bodies
func actionForm(c *fiber.Ctx) (url.Values, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		return taskdesk.RequestFromFiber(c).Form, nil
	}

	body := map[string]any{}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return nil, err
		}
	}

	form := url.Values{}
	for key, raw := range body {
		switch v := raw.(type) {
		case nil:
		case []any:
			for _, item := range v {
				form.Add(key, formValue(item))
			}
		default:
			form.Set(key, formValue(v))
		}
	}
	return form, nil
}

func formValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

var _ Dashboard = (*repository.Store)(nil)
