package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open connects to a SQLite database. In memory databases are pinned to a
// single connection so every query sees the same data.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqldb.SetMaxOpenConns(1)
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

type tableDef struct {
	name        string
	model       any
	foreignKeys []string
}

// tables lists every table, parents first
var tables = []tableDef{
	{name: "users", model: (*User)(nil)},
	{name: "organizations", model: (*Organization)(nil)},
	{name: "organization_members", model: (*OrganizationMember)(nil), foreignKeys: []string{
		`("org_id") REFERENCES "organizations" ("id") ON DELETE CASCADE`,
		`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}},
	{name: "projects", model: (*Project)(nil), foreignKeys: []string{
		`("org_id") REFERENCES "organizations" ("id") ON DELETE CASCADE`,
		`("created_by") REFERENCES "users" ("id")`,
	}},
	{name: "project_members", model: (*ProjectMember)(nil), foreignKeys: []string{
		`("project_id") REFERENCES "projects" ("id") ON DELETE CASCADE`,
		`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}},
	{name: "tasks", model: (*Task)(nil), foreignKeys: []string{
		`("project_id") REFERENCES "projects" ("id") ON DELETE CASCADE`,
		`("created_by") REFERENCES "users" ("id")`,
		`("assigned_to") REFERENCES "users" ("id")`,
	}},
	{name: "task_dependencies", model: (*TaskDependency)(nil), foreignKeys: []string{
		`("dependent_task_id") REFERENCES "tasks" ("id") ON DELETE CASCADE`,
		`("prerequisite_task_id") REFERENCES "tasks" ("id") ON DELETE CASCADE`,
	}},
	{name: "comments", model: (*Comment)(nil), foreignKeys: []string{
		`("task_id") REFERENCES "tasks" ("id") ON DELETE CASCADE`,
		`("user_id") REFERENCES "users" ("id")`,
	}},
	{name: "notifications", model: (*Notification)(nil), foreignKeys: []string{
		`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}},
	{name: "calendar_events", model: (*CalendarEvent)(nil), foreignKeys: []string{
		`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}},
}

// TableNames returns the names of the managed tables, parents first
func TableNames() []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.name
	}
	return out
}

// EnsureSchema creates missing tables. It is an idempotent bootstrap for
// development and tests, not a migration tool.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}
