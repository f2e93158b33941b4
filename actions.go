package taskdesk

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// ActionName is the closed set of actions the gate runs itself. Adding an
// action means adding a constant, a field to ActionHandlers and a case to
// ActionHandlers.handler.
type ActionName int

const (
	ActionNone ActionName = iota
	ActionSignup
	ActionLogin
	ActionLogout
)

// ActionParam is the query or form field naming the submitted action
const ActionParam = "_action"

func (a ActionName) String() string {
	switch a {
	case ActionSignup:
		return "signup"
	case ActionLogin:
		return "login"
	case ActionLogout:
		return "logout"
	default:
		return "none"
	}
}

// ParseActionName maps a submitted action name to the gate action set.
func ParseActionName(name string) (ActionName, bool) {
	switch strings.TrimSpace(name) {
	case "signup":
		return ActionSignup, true
	case "login":
		return ActionLogin, true
	case "logout":
		return ActionLogout, true
	default:
		return ActionNone, false
	}
}

// ActionInput is what an action handler receives
type ActionInput struct {
	Form    url.Values
	Cookies Cookies
	User    *UserClaims
}

// ActionOutput is the success payload of an action handler
type ActionOutput struct {
	User     *UserClaims
	Redirect string
	Data     any
}

// ActionHandler runs one action. Errors should be *ActionError or ozzo
// validation errors; anything else is reported as a generic failure.
type ActionHandler func(ctx context.Context, in ActionInput) (*ActionOutput, error)

// ActionHandlers is the dispatch table of the gate's actions
type ActionHandlers struct {
	Signup ActionHandler
	Login  ActionHandler
	Logout ActionHandler
}

func (h ActionHandlers) handler(name ActionName) (ActionHandler, bool) {
	switch name {
	case ActionSignup:
		return h.Signup, h.Signup != nil
	case ActionLogin:
		return h.Login, h.Login != nil
	case ActionLogout:
		if h.Logout == nil {
			return noopLogout, true
		}
		return h.Logout, true
	case ActionNone:
		return nil, false
	}
	return nil, false
}

func noopLogout(context.Context, ActionInput) (*ActionOutput, error) {
	return &ActionOutput{}, nil
}

// ActionResult is the tagged outcome of an invocation: Err is nil on
// success. Cookies is only populated on success.
type ActionResult struct {
	Action   ActionName
	Data     any
	Redirect string
	User     *UserClaims
	Err      *ActionError
	Cookies  CookieOps
}

// OK reports whether the action succeeded
func (r ActionResult) OK() bool {
	return r.Err == nil
}

// Bridge runs auth actions and turns their results into cookie mutations
// and redirect targets.
type Bridge struct {
	handlers     ActionHandlers
	tokens       *TokenService
	landingPath  string
	publicRoot   string
	throttle     *LoginThrottle
	activity     ActivitySink
	metrics      *Metrics
	logger       Logger
	now          func() time.Time
	newSessionID func() string
}

// BridgeOption configures a Bridge
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the logger
func WithBridgeLogger(logger Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = normalizeLogger(logger)
	}
}

// WithLoginThrottle limits login attempts per e-mail
func WithLoginThrottle(t *LoginThrottle) BridgeOption {
	return func(b *Bridge) {
		b.throttle = t
	}
}

// WithActivitySink configures an ActivitySink for auth events
func WithActivitySink(sink ActivitySink) BridgeOption {
	return func(b *Bridge) {
		b.activity = normalizeActivitySink(sink)
	}
}

// WithBridgeMetrics sets the metrics collector
func WithBridgeMetrics(m *Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithRedirectPaths overrides the landing path and the public root
func WithRedirectPaths(landing, publicRoot string) BridgeOption {
	return func(b *Bridge) {
		if landing != "" {
			b.landingPath = landing
		}
		if publicRoot != "" {
			b.publicRoot = publicRoot
		}
	}
}

// WithSessionIDGenerator overrides how session identifiers are minted
func WithSessionIDGenerator(gen func() string) BridgeOption {
	return func(b *Bridge) {
		if gen != nil {
			b.newSessionID = gen
		}
	}
}

// NewBridge creates a Bridge
func NewBridge(tokens *TokenService, handlers ActionHandlers, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		handlers:     handlers,
		tokens:       tokens,
		landingPath:  "/dashboard",
		publicRoot:   "/",
		activity:     noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
		newSessionID: uuid.NewString,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if b.tokens == nil {
		panic("TASKDESK: action bridge requires a TokenService")
	}

	return b
}

// Invoke runs the named action. It never panics and never returns a raw
// error: failures are normalised into ActionResult.Err and leave cookies
// untouched.
func (b *Bridge) Invoke(ctx context.Context, name ActionName, in ActionInput) (res ActionResult) {
	res.Action = name

	defer func() {
		b.metrics.observeAction(name, res)
		b.emit(ctx, name, res, in)
	}()

	handler, ok := b.handlers.handler(name)
	if !ok {
		res.Err = b.normalize(name, fmt.Errorf("%w: %s", ErrUnknownAction, name))
		return res
	}

	if name == ActionLogin && !b.throttle.Allow(in.Form.Get("email")) {
		res.Err = NewActionError(CodeTooManyRequests, MessageTooManyAttempts)
		res.Err.Action = name.String()
		return res
	}

	out, err := b.run(ctx, handler, in)
	if err != nil {
		res.Err = b.normalize(name, err)
		return res
	}

	if out == nil {
		out = &ActionOutput{}
	}

	var cookies CookieOps
	redirect := out.Redirect

	switch name {
	case ActionSignup, ActionLogin:
		if out.User == nil {
			res.Err = b.normalize(name, ErrMissingUser)
			return res
		}

		token, err := b.tokens.Issue(*out.User)
		if err != nil {
			res.Err = b.normalize(name, err)
			return res
		}

		expires := b.now().Add(b.tokens.TTL())
		cookies = append(cookies,
			SetCookie(CookieAuthToken, token, expires),
			SetCookie(CookieSessionID, b.newSessionID(), expires),
		)

		if returnTo := in.Cookies.Get(CookieReturnTo); returnTo != "" {
			cookies = append(cookies, DeleteCookie(CookieReturnTo))
			if redirect == "" && isLocalPath(returnTo) {
				redirect = returnTo
			}
		}

		if redirect == "" {
			redirect = b.landingPath
		}
		res.User = out.User

	case ActionLogout:
		for _, n := range []string{CookieAuthToken, CookieSessionID, CookieReturnTo} {
			if in.Cookies.Has(n) {
				cookies = append(cookies, DeleteCookie(n))
			}
		}
		if redirect == "" {
			redirect = b.publicRoot
		}
	}

	res.Data = out.Data
	res.Redirect = redirect
	res.Cookies = cookies

	b.logger.Debug("action completed", "action", name.String(), "redirect", redirect, "data", print.MaybePrettyJSON(out.Data))

	return res
}

func (b *Bridge) run(ctx context.Context, handler ActionHandler, in ActionInput) (out *ActionOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action handler panic: %v", r)
		}
	}()
	return handler(ctx, in)
}

func (b *Bridge) normalize(name ActionName, err error) *ActionError {
	if aerr, ok := AsActionError(err); ok {
		aerr.Action = name.String()
		return aerr
	}

	b.logger.Error("action failed", "action", name.String(), "error", err)

	return &ActionError{
		Action:  name.String(),
		Code:    CodeInternal,
		Message: MessageOperationFailed,
	}
}

func (b *Bridge) emit(ctx context.Context, name ActionName, res ActionResult, in ActionInput) {
	eventType, ok := activityFor(name, res.OK())
	if !ok {
		return
	}

	event := ActivityEvent{
		EventType:  eventType,
		OccurredAt: b.now(),
		Metadata:   map[string]any{},
	}

	switch {
	case res.User != nil:
		event.UserID = res.User.UserID
	case in.User != nil:
		event.UserID = in.User.UserID
	}

	if email := in.Form.Get("email"); email != "" {
		event.Metadata["identifier"] = email
	}
	if res.Err != nil {
		event.Metadata["code"] = res.Err.Code
	}

	if err := b.activity.Record(ctx, event); err != nil {
		b.logger.Warn("activity sink failed", "event", string(eventType), "error", err)
	}
}

// isLocalPath accepts absolute paths on this host only
func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return false
	}
	return !strings.ContainsAny(p, "\\\r\n")
}
