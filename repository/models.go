package repository

import (
	"time"

	"github.com/uptrace/bun"
)

// User types
const (
	UserTypeIndividual = "individual"
	UserTypeBusiness   = "business"
	UserTypeAdmin      = "admin"
)

// Membership roles
const (
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
	OrgRoleViewer = "viewer"

	ProjectRoleManager = "project_manager"
	ProjectRoleMember  = "team_member"
	ProjectRoleViewer  = "viewer"
)

// Organization sizes
const (
	OrgTypeSmall  = "small"
	OrgTypeMedium = "medium"
	OrgTypeLarge  = "large"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	FullName      string    `bun:"full_name,notnull" json:"full_name"`
	Phone         string    `bun:"phone_number" json:"phone_number,omitempty"`
	UserType      string    `bun:"user_type,notnull" json:"user_type"`
	IsActive      bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Organization is a tenant
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:org"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	OrgType       string    `bun:"org_type,notnull" json:"org_type"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// OrganizationMember links a user to an organization
type OrganizationMember struct {
	bun.BaseModel `bun:"table:organization_members,alias:om"`
	OrgID         int64     `bun:"org_id,pk" json:"org_id"`
	UserID        int64     `bun:"user_id,pk" json:"user_id"`
	Role          string    `bun:"role,notnull" json:"role"`
	JoinedAt      time.Time `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joined_at"`
}

// Project statuses
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// Project belongs to an organization
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Description   string    `bun:"description,notnull" json:"description"`
	OrgID         int64     `bun:"org_id,notnull" json:"org_id"`
	CreatedBy     int64     `bun:"created_by,notnull" json:"created_by"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	StartDate     time.Time `bun:"start_date" json:"start_date"`
	EndDate       time.Time `bun:"end_date" json:"end_date"`
	Status        string    `bun:"status,notnull" json:"status"`
}

// ProjectMember links a user to a project
type ProjectMember struct {
	bun.BaseModel `bun:"table:project_members,alias:pm"`
	ProjectID     int64     `bun:"project_id,pk" json:"project_id"`
	UserID        int64     `bun:"user_id,pk" json:"user_id"`
	Role          string    `bun:"role,notnull" json:"role"`
	JoinedAt      time.Time `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joined_at"`
}

// Task priorities and statuses
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	TaskNotStarted = "not_started"
	TaskInProgress = "in_progress"
	TaskWaiting    = "waiting"
	TaskCompleted  = "completed"
)

// Task is a unit of work inside a project
type Task struct {
	bun.BaseModel    `bun:"table:tasks,alias:tsk"`
	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description,notnull" json:"description"`
	Priority         string    `bun:"priority,notnull" json:"priority"`
	Status           string    `bun:"status,notnull" json:"status"`
	ProjectID        int64     `bun:"project_id,notnull" json:"project_id"`
	CreatedBy        int64     `bun:"created_by,notnull" json:"created_by"`
	AssignedTo       int64     `bun:"assigned_to,notnull" json:"assigned_to"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DueDate          time.Time `bun:"due_date" json:"due_date"`
	EstimatedHours   float64   `bun:"estimated_hours,notnull" json:"estimated_hours"`
	ActualHours      float64   `bun:"actual_hours,notnull" json:"actual_hours"`
	Labels           string    `bun:"labels,notnull" json:"labels"`
	Progress         float64   `bun:"progress,notnull" json:"progress"`
	IsRecurring      bool      `bun:"is_recurring,notnull" json:"is_recurring"`
	RecurringPattern string    `bun:"recurring_pattern,notnull" json:"recurring_pattern"`
}

// TaskDependency says DependentTaskID waits on PrerequisiteTaskID
type TaskDependency struct {
	bun.BaseModel      `bun:"table:task_dependencies,alias:tdp"`
	DependentTaskID    int64     `bun:"dependent_task_id,pk" json:"dependent_task_id"`
	PrerequisiteTaskID int64     `bun:"prerequisite_task_id,pk" json:"prerequisite_task_id"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Comment on a task
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	TaskID        int64     `bun:"task_id,notnull" json:"task_id"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id"`
	Content       string    `bun:"content,notnull" json:"content"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Notification types
const (
	NotificationTaskAssignment = "task_assignment"
	NotificationDueDate        = "due_date"
	NotificationMention        = "mention"
	NotificationProjectUpdate  = "project_update"
)

// Notification is addressed to one user
type Notification struct {
	bun.BaseModel    `bun:"table:notifications,alias:ntf"`
	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID           int64     `bun:"user_id,notnull" json:"user_id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Content          string    `bun:"content,notnull" json:"content"`
	Type             string    `bun:"type,notnull" json:"type"`
	RelatedTaskID    *int64    `bun:"related_task_id" json:"related_task_id,omitempty"`
	RelatedProjectID *int64    `bun:"related_project_id" json:"related_project_id,omitempty"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// CalendarEvent is a dated entry on a user's calendar
type CalendarEvent struct {
	bun.BaseModel    `bun:"table:calendar_events,alias:cal"`
	ID               int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID           int64      `bun:"user_id,notnull" json:"user_id"`
	EventTitle       string     `bun:"event_title,notnull" json:"event_title"`
	Description      string     `bun:"description" json:"description"`
	StartDate        time.Time  `bun:"start_date" json:"start_date"`
	EndDate          time.Time  `bun:"end_date" json:"end_date"`
	IsRecurring      bool       `bun:"is_recurring,notnull" json:"is_recurring"`
	RecurringPattern string     `bun:"recurring_pattern" json:"recurring_pattern"`
	ReminderTime     *time.Time `bun:"reminder_time" json:"reminder_time,omitempty"`
	ProjectID        *int64     `bun:"project_id" json:"project_id,omitempty"`
	TaskID           *int64     `bun:"task_id" json:"task_id,omitempty"`
}
