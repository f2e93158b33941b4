package taskdesk_test

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-taskdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{taskdesk.CodeBadRequest, 400},
		{taskdesk.CodeUnauthorized, 401},
		{taskdesk.CodeTooManyRequests, 429},
		{taskdesk.CodeInternal, 500},
		{"SOMETHING_ELSE", 500},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, taskdesk.NewActionError(tt.code, "m").HTTPStatus())
		})
	}
}

func TestActionErrorMessage(t *testing.T) {
	aerr := taskdesk.NewActionError(taskdesk.CodeUnauthorized, "Utilisateur inconnu")
	assert.Equal(t, "UNAUTHORIZED: Utilisateur inconnu", aerr.Error())

	aerr.Action = "login"
	assert.Equal(t, "login: UNAUTHORIZED: Utilisateur inconnu", aerr.Error())
}

func TestValidationError(t *testing.T) {
	verrs := validation.Errors{
		"email":    errors.New("Email invalide"),
		"password": errors.New("Mot de passe requis"),
	}

	aerr, ok := taskdesk.ValidationError(fmt.Errorf("signup: %w", verrs))
	require.True(t, ok)
	assert.Equal(t, taskdesk.CodeBadRequest, aerr.Code)
	assert.Equal(t, taskdesk.MessageInvalidForm, aerr.Message)
	assert.Equal(t, map[string]string{
		"email":    "Email invalide",
		"password": "Mot de passe requis",
	}, aerr.Fields)

	_, ok = taskdesk.ValidationError(errors.New("boom"))
	assert.False(t, ok)
}

func TestAsActionError(t *testing.T) {
	t.Run("wrapped action error is cloned", func(t *testing.T) {
		orig := taskdesk.NewActionError(taskdesk.CodeBadRequest, "Email déjà utilisé").WithField("email", "pris")
		aerr, ok := taskdesk.AsActionError(fmt.Errorf("create: %w", orig))
		require.True(t, ok)
		assert.Equal(t, orig, aerr)

		aerr.Action = "signup"
		aerr.Fields["email"] = "changed"
		assert.Empty(t, orig.Action)
		assert.Equal(t, "pris", orig.Fields["email"])
	})

	t.Run("validation errors", func(t *testing.T) {
		aerr, ok := taskdesk.AsActionError(validation.Errors{"title": errors.New("requis")})
		require.True(t, ok)
		assert.Equal(t, "requis", aerr.Fields["title"])
	})

	t.Run("internal errors are not user facing", func(t *testing.T) {
		aerr, ok := taskdesk.AsActionError(errors.New("sql: connection refused"))
		assert.False(t, ok)
		assert.Nil(t, aerr)
	})
}

func TestIsActionError(t *testing.T) {
	err := fmt.Errorf("login: %w", taskdesk.NewActionError(taskdesk.CodeTooManyRequests, taskdesk.MessageTooManyAttempts))
	assert.True(t, taskdesk.IsActionError(err, taskdesk.CodeTooManyRequests))
	assert.True(t, taskdesk.IsActionError(err, "too_many_requests"))
	assert.False(t, taskdesk.IsActionError(err, taskdesk.CodeUnauthorized))
	assert.False(t, taskdesk.IsActionError(errors.New("plain"), taskdesk.CodeInternal))
}
