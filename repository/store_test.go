package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-taskdesk/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := repository.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.EnsureSchema(context.Background(), db))

	return repository.NewStore(db)
}

func createUser(t *testing.T, store *repository.Store, email string) (*repository.User, *repository.Organization) {
	t.Helper()
	user, org, err := store.CreateUser(context.Background(), repository.NewUser{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Ada Lovelace",
		CompanyName:  "Analytical Engines",
	})
	require.NoError(t, err)
	return user, org
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, repository.EnsureSchema(context.Background(), store.DB()))
	assert.Len(t, repository.TableNames(), 10)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user, org := createUser(t, store, "  Ada@Example.com ")

	assert.NotZero(t, user.ID)
	assert.NotZero(t, org.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, repository.UserTypeBusiness, user.UserType)
	assert.True(t, user.IsActive)
	assert.Equal(t, repository.OrgTypeSmall, org.OrgType)

	orgID, err := store.OrgIDForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, orgID)

	found, err := store.FindUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "Ada Lovelace", found.FullName)

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestIsOrgMember(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ada, adaOrg := createUser(t, store, "ada@example.com")
	grace, graceOrg := createUser(t, store, "grace@example.com")

	tests := []struct {
		name   string
		orgID  int64
		userID int64
		member bool
	}{
		{name: "own organization", orgID: adaOrg.ID, userID: ada.ID, member: true},
		{name: "other organization", orgID: adaOrg.ID, userID: grace.ID},
		{name: "reverse", orgID: graceOrg.ID, userID: ada.ID},
		{name: "unknown user", orgID: adaOrg.ID, userID: 9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member, err := store.IsOrgMember(ctx, tt.orgID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.member, member)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	createUser(t, store, "ada@example.com")

	_, _, err := store.CreateUser(context.Background(), repository.NewUser{
		Email:        "ada@example.com",
		PasswordHash: "hash",
		FullName:     "Other",
		CompanyName:  "Other",
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.FindUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.GetUser(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.GetProject(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.OrgIDForUser(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectMembers(t *testing.T) {
	members := repository.ProjectMembers(1, []int64{2, 1, 3, 2, 0})

	require.Len(t, members, 3)
	assert.Equal(t, int64(1), members[0].UserID)
	assert.Equal(t, repository.ProjectRoleManager, members[0].Role)
	assert.Equal(t, int64(2), members[1].UserID)
	assert.Equal(t, repository.ProjectRoleMember, members[1].Role)
	assert.Equal(t, int64(3), members[2].UserID)
}

func TestCreateProjectAndTask(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	manager, org := createUser(t, store, "manager@example.com")
	member, _ := createUser(t, store, "member@example.com")

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	project, members, err := store.CreateProject(ctx, &repository.Project{
		Name:      "Launch",
		OrgID:     org.ID,
		CreatedBy: manager.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Status:    repository.ProjectPlanning,
	}, manager.ID, []int64{member.ID, manager.ID})
	require.NoError(t, err)

	assert.NotZero(t, project.ID)
	require.Len(t, members, 2)
	for _, m := range members {
		assert.Equal(t, project.ID, m.ProjectID)
	}

	got, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)

	projects, err := store.ProjectsForOrg(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	task, err := store.CreateTask(ctx, &repository.Task{
		Title:      "Write copy",
		Priority:   repository.PriorityHigh,
		Status:     repository.TaskNotStarted,
		ProjectID:  project.ID,
		CreatedBy:  manager.ID,
		AssignedTo: member.ID,
		DueDate:    start.AddDate(0, 0, 7),
		Labels:     "copy,web",
	})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)

	tasks, err := store.TasksForOrg(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write copy", tasks[0].Title)
}
