package main

import (
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp(t *testing.T) *cli.App {
	t.Helper()
	app := App()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func TestAppCommands(t *testing.T) {
	app := App()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "schema"}, names)
}

func TestSchemaCommand(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "cli-test-key")
	t.Setenv("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	t.Setenv("LOG_LEVEL", "error")

	missing := filepath.Join(t.TempDir(), "missing.env")
	err := testApp(t).Run([]string{"taskdesk", "--env-file", missing, "schema"})
	require.NoError(t, err)
}

func TestMissingSigningKeyExits(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	missing := filepath.Join(t.TempDir(), "missing.env")
	err := testApp(t).Run([]string{"taskdesk", "--env-file", missing, "schema"})
	require.Error(t, err)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
}
