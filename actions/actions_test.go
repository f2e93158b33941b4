package actions_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/actions"
	"github.com/goliatone/go-taskdesk/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlers(t *testing.T) (*actions.Handlers, *repository.Store) {
	t.Helper()

	db, err := repository.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.EnsureSchema(context.Background(), db))

	store := repository.NewStore(db)
	return actions.New(store), store
}

func signupForm(email string) url.Values {
	return url.Values{
		"fullName":        {"Ada Lovelace"},
		"email":           {email},
		"companyName":     {"Analytical Engines"},
		"password":        {"correct-horse"},
		"confirmPassword": {"correct-horse"},
	}
}

func signup(t *testing.T, h *actions.Handlers, email string) *taskdesk.UserClaims {
	t.Helper()
	out, err := h.Signup(context.Background(), taskdesk.ActionInput{Form: signupForm(email)})
	require.NoError(t, err)
	require.NotNil(t, out.User)
	return out.User
}

func actionError(t *testing.T, err error) *taskdesk.ActionError {
	t.Helper()
	var aerr *taskdesk.ActionError
	require.ErrorAs(t, err, &aerr)
	return aerr
}

func TestSignup(t *testing.T) {
	h, store := newHandlers(t)

	user := signup(t, h, "ada@example.com")

	assert.NotZero(t, user.UserID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	require.True(t, user.HasOrg())
	assert.NoError(t, user.Validate())

	orgID, err := store.OrgIDForUser(context.Background(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, orgID, *user.OrgID)

	stored, err := store.GetUser(context.Background(), user.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.True(t, taskdesk.VerifyPassword(stored.PasswordHash, "correct-horse"))
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, _ := newHandlers(t)
	signup(t, h, "ada@example.com")

	_, err := h.Signup(context.Background(), taskdesk.ActionInput{Form: signupForm("ada@example.com")})

	aerr := actionError(t, err)
	assert.Equal(t, taskdesk.CodeBadRequest, aerr.Code)
	assert.Equal(t, actions.MsgEmailTaken, aerr.Message)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		field   string
		message string
	}{
		{
			name:    "missing full name",
			mutate:  func(f url.Values) { f.Del("fullName") },
			field:   "fullName",
			message: actions.MsgFullNameMissing,
		},
		{
			name:    "bad email",
			mutate:  func(f url.Values) { f.Set("email", "not-an-email") },
			field:   "email",
			message: actions.MsgEmailInvalid,
		},
		{
			name:    "missing company",
			mutate:  func(f url.Values) { f.Del("companyName") },
			field:   "companyName",
			message: actions.MsgCompanyMissing,
		},
		{
			name: "short password",
			mutate: func(f url.Values) {
				f.Set("password", "short")
				f.Set("confirmPassword", "short")
			},
			field:   "password",
			message: actions.MsgPasswordShort,
		},
		{
			name:    "passwords differ",
			mutate:  func(f url.Values) { f.Set("confirmPassword", "something-else") },
			field:   "confirmPassword",
			message: actions.MsgPasswordsDiffer,
		},
		{
			name:    "bad phone",
			mutate:  func(f url.Values) { f.Set("phone", "12") },
			field:   "phone",
			message: actions.MsgPhoneInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandlers(t)
			form := signupForm("ada@example.com")
			tt.mutate(form)

			_, err := h.Signup(context.Background(), taskdesk.ActionInput{Form: form})
			require.Error(t, err)

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			require.Contains(t, verrs, tt.field)
			assert.Equal(t, tt.message, verrs[tt.field].Error())
		})
	}
}

func TestSignupNormalizesPhone(t *testing.T) {
	h, store := newHandlers(t)

	form := signupForm("ada@example.com")
	form.Set("phone", "06 12 34 56 78")

	out, err := h.Signup(context.Background(), taskdesk.ActionInput{Form: form})
	require.NoError(t, err)

	stored, err := store.GetUser(context.Background(), out.User.UserID)
	require.NoError(t, err)
	assert.Equal(t, "+33612345678", stored.Phone)
}

func TestLogin(t *testing.T) {
	h, _ := newHandlers(t)
	created := signup(t, h, "ada@example.com")

	t.Run("success", func(t *testing.T) {
		out, err := h.Login(context.Background(), taskdesk.ActionInput{Form: url.Values{
			"email":    {"ada@example.com"},
			"password": {"correct-horse"},
		}})
		require.NoError(t, err)
		require.NotNil(t, out.User)
		assert.Equal(t, created.UserID, out.User.UserID)
		require.True(t, out.User.HasOrg())
		assert.Equal(t, *created.OrgID, *out.User.OrgID)
		assert.Empty(t, out.Redirect)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.Login(context.Background(), taskdesk.ActionInput{Form: url.Values{
			"email":    {"ada@example.com"},
			"password": {"wrong-horse"},
		}})
		aerr := actionError(t, err)
		assert.Equal(t, taskdesk.CodeUnauthorized, aerr.Code)
		assert.Equal(t, actions.MsgWrongPassword, aerr.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := h.Login(context.Background(), taskdesk.ActionInput{Form: url.Values{
			"email":    {"ghost@example.com"},
			"password": {"whatever"},
		}})
		aerr := actionError(t, err)
		assert.Equal(t, taskdesk.CodeUnauthorized, aerr.Code)
		assert.Equal(t, actions.MsgUnknownUser, aerr.Message)
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := h.Login(context.Background(), taskdesk.ActionInput{Form: url.Values{
			"email": {"ada@example.com"},
		}})
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, actions.MsgPasswordMissing, verrs["password"].Error())
	})
}

func TestLogout(t *testing.T) {
	h, _ := newHandlers(t)
	out, err := h.Logout(context.Background(), taskdesk.ActionInput{})
	require.NoError(t, err)
	assert.Nil(t, out.User)
}

func TestGateHandlersAreWired(t *testing.T) {
	h, _ := newHandlers(t)
	gh := h.GateHandlers()
	assert.NotNil(t, gh.Signup)
	assert.NotNil(t, gh.Login)
	assert.NotNil(t, gh.Logout)

	assert.Equal(t, []string{"addProject", "addTask", "verifyAuth"}, h.JSONActions().Names())
}

func TestVerifyAuth(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.VerifyAuth(context.Background(), taskdesk.ActionInput{})
	require.NoError(t, err)
	assert.False(t, res.(actions.AuthStatus).Authenticated)

	user := &taskdesk.UserClaims{UserID: 7, Email: "ada@example.com"}
	res, err = h.VerifyAuth(context.Background(), taskdesk.ActionInput{User: user})
	require.NoError(t, err)
	status := res.(actions.AuthStatus)
	assert.True(t, status.Authenticated)
	assert.Equal(t, user, status.User)
}

func projectForm(manager int64, members ...int64) url.Values {
	form := url.Values{
		"title":          {"Launch"},
		"description":    {"Website launch"},
		"startDate":      {"2024-03-01"},
		"endDate":        {"2024-04-01"},
		"projectManager": {fmt.Sprint(manager)},
	}
	for _, m := range members {
		form.Add("members", fmt.Sprint(m))
	}
	return form
}

func TestAddProject(t *testing.T) {
	h, store := newHandlers(t)
	manager := signup(t, h, "manager@example.com")
	member := signup(t, h, "member@example.com")

	res, err := h.AddProject(context.Background(), taskdesk.ActionInput{
		User: manager,
		Form: projectForm(manager.UserID, member.UserID, manager.UserID),
	})
	require.NoError(t, err)

	data := res.(map[string]any)
	project := data["project"].(*repository.Project)
	members := data["members"].([]repository.ProjectMember)

	assert.Equal(t, *manager.OrgID, project.OrgID)
	assert.Equal(t, manager.UserID, project.CreatedBy)
	assert.Equal(t, repository.ProjectPlanning, project.Status)
	require.Len(t, members, 2)
	assert.Equal(t, repository.ProjectRoleManager, members[0].Role)

	got, err := store.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)
}

func TestAddProjectRequiresUser(t *testing.T) {
	h, _ := newHandlers(t)
	_, err := h.AddProject(context.Background(), taskdesk.ActionInput{Form: projectForm(1)})
	aerr := actionError(t, err)
	assert.Equal(t, taskdesk.CodeUnauthorized, aerr.Code)
	assert.Equal(t, actions.MsgProjectLoginRequired, aerr.Message)
}

func TestAddProjectValidation(t *testing.T) {
	h, _ := newHandlers(t)
	user := &taskdesk.UserClaims{UserID: 1, Email: "ada@example.com"}

	form := projectForm(1)
	form.Set("endDate", "2024-02-01")
	form.Set("status", "archived")
	form.Set("projectManager", "")

	_, err := h.AddProject(context.Background(), taskdesk.ActionInput{User: user, Form: form})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, actions.MsgProjectEndBeforeStart, verrs["endDate"].Error())
	assert.Equal(t, actions.MsgProjectStatus, verrs["status"].Error())
	assert.Equal(t, actions.MsgProjectManager, verrs["projectManager"].Error())
}

func TestAddProjectWithoutOrganization(t *testing.T) {
	h, _ := newHandlers(t)
	user := &taskdesk.UserClaims{UserID: 99, Email: "ghost@example.com"}

	_, err := h.AddProject(context.Background(), taskdesk.ActionInput{User: user, Form: projectForm(99)})
	aerr := actionError(t, err)
	assert.Equal(t, taskdesk.CodeUnauthorized, aerr.Code)
	assert.Equal(t, actions.MsgProjectNoOrg, aerr.Message)
}

func taskForm(projectID, assignee int64) url.Values {
	return url.Values{
		"title":          {"Write copy"},
		"priority":       {"high"},
		"status":         {"not_started"},
		"estimatedHours": {"4"},
		"actualHours":    {""},
		"labels":         {" copy , web ,, "},
		"progress":       {"10"},
		"isRecurring":    {"on"},
		"dueDate":        {"2024-03-10"},
		"assignedTo":     {fmt.Sprint(assignee)},
		"projectId":      {fmt.Sprint(projectID)},
	}
}

func TestAddTask(t *testing.T) {
	h, _ := newHandlers(t)
	user := signup(t, h, "manager@example.com")

	res, err := h.AddProject(context.Background(), taskdesk.ActionInput{User: user, Form: projectForm(user.UserID)})
	require.NoError(t, err)
	project := res.(map[string]any)["project"].(*repository.Project)

	res, err = h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: taskForm(project.ID, user.UserID)})
	require.NoError(t, err)

	task := res.(map[string]any)["task"].(*repository.Task)
	assert.NotZero(t, task.ID)
	assert.Equal(t, "copy,web", task.Labels)
	assert.Equal(t, float64(4), task.EstimatedHours)
	assert.Equal(t, float64(0), task.ActualHours)
	assert.True(t, task.IsRecurring)
	assert.Equal(t, user.UserID, task.CreatedBy)
	assert.Equal(t, 10, task.DueDate.Day())
}

func TestAddTaskErrors(t *testing.T) {
	h, _ := newHandlers(t)
	user := signup(t, h, "manager@example.com")
	other := signup(t, h, "other@example.com")

	res, err := h.AddProject(context.Background(), taskdesk.ActionInput{User: other, Form: projectForm(other.UserID)})
	require.NoError(t, err)
	foreign := res.(map[string]any)["project"].(*repository.Project)

	t.Run("anonymous", func(t *testing.T) {
		_, err := h.AddTask(context.Background(), taskdesk.ActionInput{Form: taskForm(1, 1)})
		aerr := actionError(t, err)
		assert.Equal(t, taskdesk.CodeUnauthorized, aerr.Code)
		assert.Equal(t, actions.MsgTaskLoginRequired, aerr.Message)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		_, err := h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: taskForm(foreign.ID, 999)})
		aerr := actionError(t, err)
		assert.Equal(t, actions.MsgTaskUnknownUser, aerr.Message)
	})

	t.Run("assignee of another organization", func(t *testing.T) {
		res, err := h.AddProject(context.Background(), taskdesk.ActionInput{User: user, Form: projectForm(user.UserID)})
		require.NoError(t, err)
		own := res.(map[string]any)["project"].(*repository.Project)

		_, err = h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: taskForm(own.ID, other.UserID)})
		aerr := actionError(t, err)
		assert.Equal(t, taskdesk.CodeBadRequest, aerr.Code)
		assert.Equal(t, actions.MsgTaskUnknownUser, aerr.Message)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: taskForm(999, user.UserID)})
		aerr := actionError(t, err)
		assert.Equal(t, actions.MsgTaskUnknownProject, aerr.Message)
	})

	t.Run("project of another organization", func(t *testing.T) {
		_, err := h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: taskForm(foreign.ID, user.UserID)})
		aerr := actionError(t, err)
		assert.Equal(t, taskdesk.CodeBadRequest, aerr.Code)
		assert.Equal(t, actions.MsgTaskUnknownProject, aerr.Message)
	})

	t.Run("invalid numbers", func(t *testing.T) {
		form := taskForm(foreign.ID, user.UserID)
		form.Set("progress", "150")
		form.Set("estimatedHours", "-1")
		form.Set("priority", "urgent")

		_, err := h.AddTask(context.Background(), taskdesk.ActionInput{User: user, Form: form})
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "progress")
		assert.Contains(t, verrs, "estimatedHours")
		assert.Equal(t, actions.MsgTaskPriority, verrs["priority"].Error())
	})
}
