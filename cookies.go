package taskdesk

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie names
const (
	CookieAuthToken       = "auth-token"
	CookieSessionID       = "session-id"
	CookieReturnTo        = "return-to"
	CookieActionSessionID = "action-session-id"
)

// CookieOpKind is either a set or a delete
type CookieOpKind int

const (
	CookieSet CookieOpKind = iota
	CookieDelete
)

// CookieOp is a single cookie mutation produced by a decision branch.
type CookieOp struct {
	Kind    CookieOpKind
	Name    string
	Value   string
	Expires time.Time
}

// SetCookie returns a set operation
func SetCookie(name, value string, expires time.Time) CookieOp {
	return CookieOp{Kind: CookieSet, Name: name, Value: value, Expires: expires}
}

// DeleteCookie returns a delete operation
func DeleteCookie(name string) CookieOp {
	return CookieOp{Kind: CookieDelete, Name: name}
}

// CookieOps is the ordered list of mutations of one request
type CookieOps []CookieOp

// Find returns the last operation on name
func (ops CookieOps) Find(name string) (CookieOp, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Name == name {
			return ops[i], true
		}
	}
	return CookieOp{}, false
}

// Cookies is the read side: the cookies a request arrived with
type Cookies map[string]string

// Get returns the cookie value or ""
func (c Cookies) Get(name string) string {
	if c == nil {
		return ""
	}
	return c[name]
}

// Has reports whether the cookie is present and non empty
func (c Cookies) Has(name string) bool {
	return c.Get(name) != ""
}

// CookieWriter applies CookieOps to a response. All cookies share the same
// attributes: http-only, same-site lax, path /, secure unless disabled for
// local development.
type CookieWriter struct {
	Secure bool
}

// Apply writes ops in order
func (w CookieWriter) Apply(c *fiber.Ctx, ops CookieOps) {
	for _, op := range ops {
		c.Cookie(w.cookie(op))
	}
}

func (w CookieWriter) cookie(op CookieOp) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     op.Name,
		Path:     "/",
		HTTPOnly: true,
		Secure:   w.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	switch op.Kind {
	case CookieDelete:
		ck.Value = ""
		ck.MaxAge = -1
		ck.Expires = time.Now().Add(-time.Hour * (24 * 365))
	default:
		ck.Value = op.Value
		if !op.Expires.IsZero() {
			ck.Expires = op.Expires
		} else {
			ck.SessionOnly = true
		}
	}

	return ck
}

func requestCookies(c *fiber.Ctx) Cookies {
	names := []string{CookieAuthToken, CookieSessionID, CookieReturnTo, CookieActionSessionID}
	out := make(Cookies, len(names))
	for _, name := range names {
		if v := c.Cookies(name); v != "" {
			out[name] = v
		}
	}
	return out
}
