package actions

import (
	"context"

	"github.com/goliatone/go-taskdesk"
)

// AuthStatus is the verifyAuth response
type AuthStatus struct {
	Authenticated bool                 `json:"authenticated"`
	User          *taskdesk.UserClaims `json:"user,omitempty"`
}

// VerifyAuth reports the user the request is authenticated as
func (h *Handlers) VerifyAuth(_ context.Context, in taskdesk.ActionInput) (any, error) {
	if in.User == nil {
		return AuthStatus{}, nil
	}
	return AuthStatus{Authenticated: true, User: in.User}, nil
}
