package ports

import "github.com/bnema/allergyscan-cli/internal/domain"

// Navigator moves the user to another route, replacing the current one.
type Navigator interface {
	Replace(route domain.Route)
}
