package guard

import (
	"learninghouse/console/internal/models"
)

const (
	DefaultLoginRoute   = "/auth"
	DefaultLandingRoute = "/brains/prediction"
)

// RoleReader exposes the current role of the session.
type RoleReader interface {
	Role() models.Role
}

// Decision is the outcome of a navigation check. Redirect is empty when
// Allowed is true.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Guard decides navigations against minimum role requirements. It reads the
// role once per check and keeps no subscription.
type Guard struct {
	session      RoleReader
	loginRoute   string
	landingRoute string
}

type Option func(*Guard)

func WithLoginRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

func WithLandingRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.landingRoute = route
		}
	}
}

func New(session RoleReader, opts ...Option) *Guard {
	g := &Guard{
		session:      session,
		loginRoute:   DefaultLoginRoute,
		landingRoute: DefaultLandingRoute,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Check(minimum models.Role) Decision {
	return Decide(g.session.Role(), minimum, g.loginRoute, g.landingRoute)
}

// Decide is the pure form of Check.
func Decide(current models.Role, minimum models.Role, loginRoute string, landingRoute string) Decision {
	switch {
	case current.IsMinimumRole(minimum):
		return Decision{Allowed: true}
	case current.Valid():
		return Decision{Redirect: landingRoute}
	default:
		return Decision{Redirect: loginRoute}
	}
}

func (g *Guard) LoginRoute() string {
	return g.loginRoute
}

func (g *Guard) LandingRoute() string {
	return g.landingRoute
}
