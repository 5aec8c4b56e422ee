package domain

type Route string

const (
	RouteLogin  Route = "login"
	RouteSignup Route = "signup"
	RouteHome   Route = "home"

	RouteProfile   Route = "profile"
	RouteScan      Route = "scan"
	RouteHistory   Route = "history"
	RouteMedicines Route = "medicines"
)

// PublicOnly reports whether the route only makes sense without a session.
func (r Route) PublicOnly() bool {
	return r == RouteLogin || r == RouteSignup
}
