// Package taskdesk is the request gate of the task manager: every request
// passes through it before any page handler runs.
//
// Request lifecycle:
//   - A pending action error left by the previous request (action-session-id
//     cookie) is picked up once and attached to this request.
//   - Submitted auth actions (signup, login, logout) run through the Bridge,
//     which turns their outcome into cookie mutations and a redirect.
//   - The auth-token cookie is verified by the TokenService; verification
//     failures are collapsed into a single unauthorized result.
//   - The RouteClassifier maps the path to public, auth entry or protected and
//     the gate redirects or continues with the user attached.
//
// Decisions are plain values (Decision, CookieOps). The fiber middleware is
// the only place that writes cookies or redirects.
//
// Activity sinks:
//   - ActivitySink receives signup, login and logout events. Sinks run best
//     effort: errors are logged and never fail the request.
package taskdesk
