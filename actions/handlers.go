// Package actions implements the form actions of the task manager: the auth
// actions run by the gate and the JSON actions served under /_actions.
package actions

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/repository"
	"github.com/hashicorp/go-hclog"
)

// Store is the persistence the actions need
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*repository.User, error)
	IsOrgMember(ctx context.Context, orgID, userID int64) (bool, error)
	CreateUser(ctx context.Context, in repository.NewUser) (*repository.User, *repository.Organization, error)
	OrgIDForUser(ctx context.Context, userID int64) (int64, error)
	GetProject(ctx context.Context, id int64) (*repository.Project, error)
	CreateProject(ctx context.Context, project *repository.Project, managerID int64, memberIDs []int64) (*repository.Project, []repository.ProjectMember, error)
	CreateTask(ctx context.Context, task *repository.Task) (*repository.Task, error)
}

var _ Store = (*repository.Store)(nil)

// Handlers holds every action of the application
type Handlers struct {
	store         Store
	logger        taskdesk.Logger
	phoneRegion   string
	hashPassword  func(string) (string, error)
	dummyHashOnce sync.Once
	dummyHash     string
}

// Option configures Handlers
type Option func(*Handlers)

// WithLogger sets the logger
func WithLogger(logger taskdesk.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithPhoneRegion sets the default region used to parse phone numbers
func WithPhoneRegion(region string) Option {
	return func(h *Handlers) {
		if region != "" {
			h.phoneRegion = region
		}
	}
}

// WithPasswordHasher overrides how signup hashes passwords
func WithPasswordHasher(fn func(string) (string, error)) Option {
	return func(h *Handlers) {
		if fn != nil {
			h.hashPassword = fn
		}
	}
}

// New creates the action handlers
func New(store Store, opts ...Option) *Handlers {
	h := &Handlers{
		store:        store,
		logger:       hclog.NewNullLogger(),
		phoneRegion:  "FR",
		hashPassword: taskdesk.HashPassword,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// GateHandlers returns the auth actions in the shape the gate dispatches
func (h *Handlers) GateHandlers() taskdesk.ActionHandlers {
	return taskdesk.ActionHandlers{
		Signup: h.Signup,
		Login:  h.Login,
		Logout: h.Logout,
	}
}

// JSONAction runs an action whose result is returned to the client as JSON
type JSONAction func(ctx context.Context, in taskdesk.ActionInput) (any, error)

// JSONActions is the table of actions served by name
type JSONActions map[string]JSONAction

// Names returns the registered action names, sorted
func (a JSONActions) Names() []string {
	out := make([]string, 0, len(a))
	for name := range a {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// JSONActions returns the actions served under /_actions/:name
func (h *Handlers) JSONActions() JSONActions {
	return JSONActions{
		"addTask":    h.AddTask,
		"addProject": h.AddProject,
		"verifyAuth": h.VerifyAuth,
	}
}

// orgID returns the organization of user, from the credential when it
// carries one.
func (h *Handlers) orgID(ctx context.Context, user *taskdesk.UserClaims) (int64, error) {
	if user.HasOrg() {
		return *user.OrgID, nil
	}
	return h.store.OrgIDForUser(ctx, user.UserID)
}

func (h *Handlers) unknownUserHash() string {
	h.dummyHashOnce.Do(func() {
		h.dummyHash = taskdesk.RandomPasswordHash()
	})
	return h.dummyHash
}
