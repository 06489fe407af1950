package sec

import (
	"path"
	"slices"
	"strings"
)

// Requirement is the access level a route demands.
type Requirement int

const (
	// Authenticated routes require a valid session.
	Authenticated Requirement = iota
	// Public routes are reachable by anyone.
	Public
)

// Decision is the outcome of authorizing a request.
type Decision int

const (
	// Allow lets the request through to its handler.
	Allow Decision = iota
	// RequireAuthentication sends the client to the login form.
	RequireAuthentication
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "require_authentication"
}

// Rule binds a set of path patterns to a requirement. A pattern is either an
// exact path, or a prefix ending in "/**" which matches the prefix itself and
// every path below it.
type Rule struct {
	Patterns    []string
	Requirement Requirement
}

// Policy is an ordered list of rules evaluated top to bottom; the first rule
// with a matching pattern decides. Paths matching no rule require
// authentication. A Policy is immutable and safe for concurrent use.
type Policy struct {
	rules []Rule
}

// NewPolicy returns a Policy over a copy of rules.
func NewPolicy(rules ...Rule) Policy {
	cloned := make([]Rule, len(rules))
	for i, rule := range rules {
		cloned[i] = Rule{
			Patterns:    slices.Clone(rule.Patterns),
			Requirement: rule.Requirement,
		}
	}
	return Policy{rules: cloned}
}

// DefaultPolicy returns the access rules of the web application.
func DefaultPolicy() Policy {
	return NewPolicy(
		Rule{
			Patterns:    []string{"/users/register", "/users/loginForm", "/", "/index", "/css/**", "/js/**"},
			Requirement: Public,
		},
		Rule{
			Patterns:    []string{"/events", "/events/edit/**", "/events/delete/**"},
			Requirement: Authenticated,
		},
		Rule{
			Patterns:    []string{"/**"},
			Requirement: Authenticated,
		},
	)
}

// Requirement returns the requirement of the first rule matching requestPath.
func (p Policy) Requirement(requestPath string) Requirement {
	requestPath = normalizePath(requestPath)
	for _, rule := range p.rules {
		for _, pattern := range rule.Patterns {
			if matchPattern(pattern, requestPath) {
				return rule.Requirement
			}
		}
	}
	return Authenticated
}

// Authorize decides whether a request for requestPath may proceed given
// whether it carries a valid session.
func (p Policy) Authorize(requestPath string, authenticated bool) Decision {
	if authenticated || p.Requirement(requestPath) == Public {
		return Allow
	}
	return RequireAuthentication
}

func normalizePath(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return path.Clean(requestPath)
}

func matchPattern(pattern, requestPath string) bool {
	prefix, ok := strings.CutSuffix(pattern, "/**")
	if !ok {
		return pattern == requestPath
	}
	if prefix == "" {
		return true
	}
	return requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/")
}
