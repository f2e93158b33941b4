package taskdesk

import (
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the identity carried by a credential. It is what
// downstream handlers read as the current user.
type UserClaims struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	OrgID    *int64 `json:"orgId,omitempty"`
}

// Validate checks the claims shape
func (u UserClaims) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.UserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.FullName, validation.Length(0, 200)),
		validation.Field(&u.OrgID, validation.NilOrNotEmpty, validation.Min(int64(1))),
	)
}

// HasOrg reports whether the user belongs to an organization
func (u UserClaims) HasOrg() bool {
	return u.OrgID != nil && *u.OrgID > 0
}

// JWTClaims is the signed representation of UserClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserClaims
}

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// validateShape rejects tokens that decode but do not describe a user,
// including tokens whose subject disagrees with the embedded user id.
func (c *JWTClaims) validateShape() error {
	if err := c.UserClaims.Validate(); err != nil {
		return err
	}
	if c.RegisteredClaims.Subject != "" && c.RegisteredClaims.Subject != strconv.FormatInt(c.UserID, 10) {
		return ErrInvalidClaims
	}
	return nil
}
