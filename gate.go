package taskdesk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Outcome is the terminal state of a gate evaluation
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeRedirect
)

func (o Outcome) String() string {
	if o == OutcomeRedirect {
		return "redirect"
	}
	return "continue"
}

// Request is the transport neutral view of an incoming request
type Request struct {
	Method  string
	Path    string
	URI     string
	Action  ActionName
	Form    url.Values
	Cookies Cookies
}

// Decision is what the gate decided for a request. Cookies lists every
// mutation to apply, in order, before continuing or redirecting.
type Decision struct {
	Outcome     Outcome
	Location    string
	Status      int
	Route       RouteClass
	Cookies     CookieOps
	User        *UserClaims
	Action      *ActionResult
	ActionError *ActionError
}

// Gate decides per request whether to run an action, redirect or continue.
type Gate struct {
	classifier  *RouteClassifier
	tokens      *TokenService
	bridge      *Bridge
	pending     PendingStore
	writer      CookieWriter
	landingPath string
	loginPath   string
	returnToTTL time.Duration
	pendingTTL  time.Duration
	metrics     *Metrics
	logger      Logger
	now         func() time.Time
}

// GateOption configures a Gate
type GateOption func(*Gate)

// WithRouteTable sets the route table
func WithRouteTable(table RouteTable) GateOption {
	return func(g *Gate) {
		g.classifier = NewRouteClassifier(table)
	}
}

// WithBridge enables the action check
func WithBridge(b *Bridge) GateOption {
	return func(g *Gate) {
		g.bridge = b
	}
}

// WithPendingStore keeps failed action results across one redirect
func WithPendingStore(store PendingStore, ttl time.Duration) GateOption {
	return func(g *Gate) {
		g.pending = store
		if ttl > 0 {
			g.pendingTTL = ttl
		}
	}
}

// WithGatePaths overrides the landing and login paths
func WithGatePaths(landing, login string) GateOption {
	return func(g *Gate) {
		if landing != "" {
			g.landingPath = landing
		}
		if login != "" {
			g.loginPath = login
		}
	}
}

// WithReturnToTTL sets the lifetime of the return-to cookie
func WithReturnToTTL(ttl time.Duration) GateOption {
	return func(g *Gate) {
		if ttl > 0 {
			g.returnToTTL = ttl
		}
	}
}

// WithSecureCookies toggles the secure attribute
func WithSecureCookies(secure bool) GateOption {
	return func(g *Gate) {
		g.writer.Secure = secure
	}
}

// WithGateMetrics sets the metrics collector
func WithGateMetrics(m *Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithGateLogger sets the logger
func WithGateLogger(logger Logger) GateOption {
	return func(g *Gate) {
		g.logger = normalizeLogger(logger)
	}
}

// WithGateClock overrides the time source
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a Gate. tokens is required.
func NewGate(tokens *TokenService, opts ...GateOption) *Gate {
	g := &Gate{
		classifier:  NewRouteClassifier(DefaultRouteTable()),
		tokens:      tokens,
		writer:      CookieWriter{Secure: true},
		landingPath: "/dashboard",
		loginPath:   "/login",
		returnToTTL: 5 * time.Minute,
		pendingTTL:  DefaultPendingTTL,
		logger:      defLogger{},
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	if g.tokens == nil {
		panic("TASKDESK: gate requires a TokenService")
	}

	return g
}

// Tokens returns the TokenService used by the gate
func (g *Gate) Tokens() *TokenService {
	return g.tokens
}

// Classifier returns the route classifier used by the gate
func (g *Gate) Classifier() *RouteClassifier {
	return g.classifier
}

// Evaluate runs the gate state machine for one request:
// pending pickup, action check, auth check, route decision.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	class := g.classifier.Classify(req.Path)

	var cookies CookieOps
	var actionErr *ActionError
	var actionRes *ActionResult

	if key := req.Cookies.Get(CookieActionSessionID); key != "" {
		cookies = append(cookies, DeleteCookie(CookieActionSessionID))
		actionErr = g.takePending(ctx, key)
	}

	// Failed actions never mutate cookies, so the credential verified here is
	// still the one the route decision has to judge.
	auth := g.tokens.Verify(req.Cookies.Get(CookieAuthToken))

	if req.Action != ActionNone && g.bridge != nil {
		res := g.bridge.Invoke(ctx, req.Action, ActionInput{
			Form:    req.Form,
			Cookies: req.Cookies,
			User:    auth.Claims,
		})

		if res.OK() {
			d := Decision{
				Outcome:  OutcomeRedirect,
				Location: res.Redirect,
				Status:   redirectStatus(req.Method),
				Route:    class,
				Cookies:  append(cookies, res.Cookies...),
				User:     res.User,
				Action:   &res,
			}
			g.metrics.observeDecision(class, d)
			return d
		}

		actionErr = res.Err
		actionRes = &res
	}

	d := decideRoute(class, auth, req, routePolicy{
		landingPath: g.landingPath,
		loginPath:   g.loginPath,
		returnToExp: g.now().Add(g.returnToTTL),
	})
	d.Cookies = append(cookies, d.Cookies...)
	d.Action = actionRes

	switch {
	case actionErr == nil:
	case d.Outcome == OutcomeContinue:
		d.ActionError = actionErr
	case actionRes != nil:
		d.Cookies = append(d.Cookies, g.stashPending(ctx, actionErr)...)
	default:
		// A picked up payload lives for one redirect cycle only.
		g.logger.Debug("pending payload dropped on redirect", "action", actionErr.Action, "path", req.Path)
	}

	g.metrics.observeDecision(class, d)

	return d
}

func (g *Gate) takePending(ctx context.Context, key string) *ActionError {
	if g.pending == nil {
		return nil
	}

	payload, err := g.pending.Take(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrPendingNotFound) {
			g.logger.Error("pending payload lookup failed", "error", err)
		}
		return nil
	}

	return payload.Error
}

func (g *Gate) stashPending(ctx context.Context, aerr *ActionError) CookieOps {
	if g.pending == nil {
		return nil
	}

	key, err := g.pending.Put(ctx, PendingPayload{
		Action:    aerr.Action,
		Error:     aerr,
		CreatedAt: g.now(),
	})
	if err != nil {
		g.logger.Error("pending payload store failed", "error", err)
		return nil
	}

	return CookieOps{SetCookie(CookieActionSessionID, key, g.now().Add(g.pendingTTL))}
}

type routePolicy struct {
	landingPath string
	loginPath   string
	returnToExp time.Time
}

// decideRoute is the route decision table. It has no side effects.
func decideRoute(class RouteClass, auth AuthResult, req Request, p routePolicy) Decision {
	authenticated := auth.Authorized()

	d := Decision{Outcome: OutcomeContinue, Route: class}
	if authenticated {
		d.User = auth.Claims
	}

	switch class {
	case RouteAuthRedirect:
		if authenticated {
			d.Outcome = OutcomeRedirect
			d.Location = p.landingPath
			d.Status = redirectStatus(req.Method)
		}

	case RouteProtected:
		if authenticated {
			return d
		}

		for _, name := range []string{CookieAuthToken, CookieSessionID} {
			if req.Cookies.Has(name) {
				d.Cookies = append(d.Cookies, DeleteCookie(name))
			}
		}

		target := req.URI
		if target == "" {
			target = req.Path
		}
		if isLocalPath(target) {
			d.Cookies = append(d.Cookies, SetCookie(CookieReturnTo, target, p.returnToExp))
		}

		d.Outcome = OutcomeRedirect
		d.Location = p.loginPath
		d.Status = redirectStatus(req.Method)

	case RoutePublic, RouteUnclassified:
	}

	return d
}

func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead || method == "" {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
