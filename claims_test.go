package taskdesk_test

import (
	"testing"

	"github.com/goliatone/go-taskdesk"
	"github.com/stretchr/testify/assert"
)

func TestUserClaimsValidate(t *testing.T) {
	tests := []struct {
		name  string
		user  taskdesk.UserClaims
		valid bool
	}{
		{name: "complete", user: testUser(), valid: true},
		{name: "without organization", user: taskdesk.UserClaims{UserID: 1, Email: "ada@example.com"}, valid: true},
		{name: "missing email", user: taskdesk.UserClaims{UserID: 1}},
		{name: "zero user id", user: taskdesk.UserClaims{Email: "ada@example.com"}},
		{name: "negative organization", user: taskdesk.UserClaims{UserID: 1, Email: "ada@example.com", OrgID: int64Ptr(-3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestUserClaimsHasOrg(t *testing.T) {
	user := testUser()
	assert.True(t, user.HasOrg())

	user.OrgID = nil
	assert.False(t, user.HasOrg())

	user.OrgID = int64Ptr(0)
	assert.False(t, user.HasOrg())
}
