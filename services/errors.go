// Package services holds the application logic: token lifecycle, routines,
// records and the exercise catalog.
package services

import "errors"

// Error kinds returned by the services. Callers match them with errors.Is; the
// wrapping message carries the detail.
var (
	ErrNotFoundEntity      = errors.New("entity not found")
	ErrDuplicatedEntity    = errors.New("entity already exists")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInaccessibleEntity  = errors.New("entity is not accessible")
	ErrInvalidRequest      = errors.New("invalid request")
)

// Problem describes how an error kind is presented to HTTP clients.
type Problem struct {
	Status int
	Code   int
	Kind   string
}

var problems = []struct {
	err     error
	problem Problem
}{
	{ErrNotFoundEntity, Problem{Status: 404, Code: 40400, Kind: "NOT_FOUND_ENTITY"}},
	{ErrDuplicatedEntity, Problem{Status: 409, Code: 40900, Kind: "DUPLICATED_ENTITY"}},
	{ErrInvalidAccessToken, Problem{Status: 401, Code: 40100, Kind: "INVALID_ACCESS_TOKEN"}},
	{ErrInvalidRefreshToken, Problem{Status: 401, Code: 40101, Kind: "INVALID_REFRESH_TOKEN"}},
	{ErrInaccessibleEntity, Problem{Status: 406, Code: 40600, Kind: "INACCESSIBLE_ENTITY"}},
	{ErrInvalidRequest, Problem{Status: 400, Code: 40000, Kind: "INVALID_REQUEST"}},
}

// InternalProblem is used for every error that carries no known kind.
var InternalProblem = Problem{Status: 500, Code: 50000, Kind: "INTERNAL_ERROR"}

// Classify returns the problem matching err and whether err carries a known kind.
func Classify(err error) (Problem, bool) {
	for _, p := range problems {
		if errors.Is(err, p.err) {
			return p.problem, true
		}
	}
	return InternalProblem, false
}
