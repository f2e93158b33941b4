package taskdesk

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the gate middleware
const (
	LocalsUser         = "user"
	LocalsActionError  = "action_error"
	LocalsActionResult = "action_result"
)

// Middleware binds the gate to fiber. Cookie mutations are applied in one
// place before the request continues or is redirected.
func (g *Gate) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := RequestFromFiber(c)

		d := g.Evaluate(c.UserContext(), req)

		g.writer.Apply(c, d.Cookies)

		if d.Outcome == OutcomeRedirect {
			g.logger.Debug("gate redirect",
				"path", req.Path,
				"route", d.Route.String(),
				"location", d.Location,
			)
			return c.Redirect(d.Location, d.Status)
		}

		if d.User != nil {
			c.Locals(LocalsUser, d.User)
			c.SetUserContext(WithUser(c.UserContext(), d.User))
		}

		if d.ActionError != nil {
			c.Locals(LocalsActionError, d.ActionError)
		}

		if d.Action != nil {
			c.Locals(LocalsActionResult, d.Action)
		}

		return c.Next()
	}
}

// Authenticate verifies the request credential without applying any route
// policy. Used by endpoints outside the route table.
func (g *Gate) Authenticate(c *fiber.Ctx) AuthResult {
	return g.tokens.Verify(c.Cookies(CookieAuthToken))
}

// RequestFromFiber snapshots what the gate needs from a fiber request
func RequestFromFiber(c *fiber.Ctx) Request {
	req := Request{
		Method:  c.Method(),
		Path:    c.Path(),
		URI:     c.OriginalURL(),
		Cookies: requestCookies(c),
	}

	if req.Method != http.MethodPost {
		return req
	}

	req.Form = formValues(c)

	name := c.Query(ActionParam)
	if name == "" {
		name = req.Form.Get(ActionParam)
	}
	if action, ok := ParseActionName(name); ok {
		req.Action = action
	}

	return req
}

func formValues(c *fiber.Ctx) url.Values {
	form := url.Values{}

	contentType := string(c.Request().Header.ContentType())
	if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return form
		}
		for k, vs := range mf.Value {
			form[k] = append(form[k], vs...)
		}
		return form
	}

	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		form.Add(string(k), string(v))
	})

	return form
}
