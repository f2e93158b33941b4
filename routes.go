package taskdesk

import "strings"

// RouteClass is the access policy bucket of a path
type RouteClass int

const (
	// RouteUnclassified paths pass through without an auth decision
	RouteUnclassified RouteClass = iota
	RoutePublic
	RouteAuthRedirect
	RouteProtected
)

func (r RouteClass) String() string {
	switch r {
	case RoutePublic:
		return "public"
	case RouteAuthRedirect:
		return "auth-redirect"
	case RouteProtected:
		return "protected"
	default:
		return "unclassified"
	}
}

// RouteTable lists the paths of each bucket. Protected entries also cover
// their sub paths; it is an allow-list.
type RouteTable struct {
	Public    []string
	AuthEntry []string
	Protected []string
}

// DefaultRouteTable is the application's route table
func DefaultRouteTable() RouteTable {
	return RouteTable{
		Public:    []string{"/"},
		AuthEntry: []string{"/login", "/signup"},
		Protected: []string{"/dashboard"},
	}
}

// RouteClassifier maps request paths to a RouteClass
type RouteClassifier struct {
	public    map[string]struct{}
	authEntry map[string]struct{}
	protected []string
}

// NewRouteClassifier builds a classifier for the given table
func NewRouteClassifier(table RouteTable) *RouteClassifier {
	rc := &RouteClassifier{
		public:    toSet(table.Public),
		authEntry: toSet(table.AuthEntry),
	}
	for _, p := range table.Protected {
		rc.protected = append(rc.protected, normalizePath(p))
	}
	return rc
}

// Classify returns the bucket for path, ignoring case. Uncategorized paths
// are RouteUnclassified; protection is never inferred.
func (rc *RouteClassifier) Classify(path string) RouteClass {
	path = normalizePath(path)

	if rc.isProtected(path) {
		return RouteProtected
	}
	if _, ok := rc.authEntry[path]; ok {
		return RouteAuthRedirect
	}
	if _, ok := rc.public[path]; ok {
		return RoutePublic
	}
	return RouteUnclassified
}

func (rc *RouteClassifier) isProtected(path string) bool {
	for _, prefix := range rc.protected {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// normalizePath lower-cases path and strips exactly one trailing slash,
// matching fiber's default case-insensitive routing. The empty path and the
// root are the same path.
func normalizePath(path string) string {
	path = strings.TrimSuffix(strings.ToLower(path), "/")
	if path == "" {
		return "/"
	}
	return path
}

func toSet(paths []string) map[string]struct{} {
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		out[normalizePath(p)] = struct{}{}
	}
	return out
}
