package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ErrNotFound the requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrEmailTaken a user with the same e-mail already exists
var ErrEmailTaken = errors.New("email already registered")

// Store is the persistence layer of the task manager
type Store struct {
	db *bun.DB
}

// NewStore creates a Store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *bun.DB {
	return s.db
}

// Validate checks the store is usable
func (s *Store) Validate() error {
	if s == nil || s.db == nil {
		return errors.New("repository store should be initialized")
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunInTx runs f in a transaction
func (s *Store) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return s.db.RunInTx(ctx, opts, f)
	}
}

// FindUserByEmail returns the user registered with email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return user, nil
}

// GetUser returns the user with id
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return user, nil
}

// NewUser is what signup persists
type NewUser struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	CompanyName  string
}

// CreateUser creates the user, their organization and an admin membership
// in one transaction.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*User, *Organization, error) {
	user := &User{
		Email:        normalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        in.Phone,
		UserType:     UserTypeBusiness,
		IsActive:     true,
	}
	org := &Organization{
		Name:    strings.TrimSpace(in.CompanyName),
		OrgType: OrgTypeSmall,
	}

	err := s.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*User)(nil)).
			Where("email = ?", user.Email).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}

		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		if _, err := tx.NewInsert().Model(org).Exec(ctx); err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}

		member := &OrganizationMember{
			OrgID:    org.ID,
			UserID:   user.ID,
			Role:     OrgRoleAdmin,
			JoinedAt: time.Now(),
		}
		if _, err := tx.NewInsert().Model(member).Exec(ctx); err != nil {
			return fmt.Errorf("insert organization member: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return user, org, nil
}

// OrgIDForUser returns the organization the user joined first
func (s *Store) OrgIDForUser(ctx context.Context, userID int64) (int64, error) {
	member := &OrganizationMember{}
	err := s.db.NewSelect().
		Model(member).
		Where("user_id = ?", userID).
		OrderExpr("joined_at ASC, org_id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, wrapNotFound(err, "organization membership")
	}
	return member.OrgID, nil
}

// IsOrgMember reports whether userID belongs to organization orgID
func (s *Store) IsOrgMember(ctx context.Context, orgID, userID int64) (bool, error) {
	return s.db.NewSelect().
		Model((*OrganizationMember)(nil)).
		Where("org_id = ?", orgID).
		Where("user_id = ?", userID).
		Exists(ctx)
}

// GetProject returns the project with id
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	project := &Project{}
	err := s.db.NewSelect().
		Model(project).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapNotFound(err, "project")
	}
	return project, nil
}

// CreateProject inserts the project with its manager and members. A user
// appears once: the manager role wins over team member.
func (s *Store) CreateProject(ctx context.Context, project *Project, managerID int64, memberIDs []int64) (*Project, []ProjectMember, error) {
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	members := ProjectMembers(managerID, memberIDs)

	err := s.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(project).Exec(ctx); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		now := time.Now()
		for i := range members {
			members[i].ProjectID = project.ID
			members[i].JoinedAt = now
		}

		if len(members) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().Model(&members).Exec(ctx); err != nil {
			return fmt.Errorf("insert project members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return project, members, nil
}

// ProjectMembers builds the membership rows for a project, manager first,
// without duplicates.
func ProjectMembers(managerID int64, memberIDs []int64) []ProjectMember {
	seen := make(map[int64]struct{}, len(memberIDs)+1)
	out := make([]ProjectMember, 0, len(memberIDs)+1)

	add := func(id int64, role string) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, ProjectMember{UserID: id, Role: role})
	}

	add(managerID, ProjectRoleManager)
	for _, id := range memberIDs {
		add(id, ProjectRoleMember)
	}

	return out
}

// ProjectsForOrg lists the projects of an organization, newest first
func (s *Store) ProjectsForOrg(ctx context.Context, orgID int64) ([]Project, error) {
	var projects []Project
	err := s.db.NewSelect().
		Model(&projects).
		Where("org_id = ?", orgID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return projects, nil
}

// CreateTask inserts task
func (s *Store) CreateTask(ctx context.Context, task *Task) (*Task, error) {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if _, err := s.db.NewInsert().Model(task).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// TasksForOrg lists the tasks of every project of an organization
func (s *Store) TasksForOrg(ctx context.Context, orgID int64) ([]Task, error) {
	var tasks []Task
	err := s.db.NewSelect().
		Model(&tasks).
		Join("JOIN projects AS p ON p.id = tsk.project_id").
		Where("p.org_id = ?", orgID).
		OrderExpr("tsk.due_date ASC, tsk.id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return tasks, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func wrapNotFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
