package service

import (
	"nav_checker/internal/domain/entity"
)

// RouteCatalog enumerates candidate sell routes for held tokens. The
// emitted order is the evaluation priority and is deterministic: direct
// routes before two-hop routes, quoters in the order they were supplied by
// the caller, intermediaries in the order they were supplied. Financial
// correctness requires this order to be caller-declared rather than any
// set iteration order.
type RouteCatalog struct {
	denomination   entity.TokenInfo
	intermediaries []entity.TokenInfo
	quoters        []entity.Quoter
}

// NewRouteCatalog creates a catalog for one valuation configuration.
func NewRouteCatalog(denomination entity.TokenInfo, intermediaries []entity.TokenInfo, quoters []entity.Quoter) *RouteCatalog {
	return &RouteCatalog{
		denomination:   denomination,
		intermediaries: intermediaries,
		quoters:        quoters,
	}
}

// BuildRoutes returns the candidate routes for selling the given token into
// the denomination token, in priority order, deduplicated by route key.
// The denomination token itself has an implicit identity route and gets no
// candidates here.
func (c *RouteCatalog) BuildRoutes(token entity.TokenInfo) []entity.Route {
	if token.Address == c.denomination.Address {
		return nil
	}

	var routes []entity.Route
	for _, quoter := range c.quoters {
		routes = append(routes, quoter.CreateRoutes(token, c.denomination, nil)...)
	}
	for _, intermediary := range c.intermediaries {
		if intermediary.Address == token.Address || intermediary.Address == c.denomination.Address {
			continue
		}
		hop := intermediary
		for _, quoter := range c.quoters {
			routes = append(routes, quoter.CreateRoutes(token, c.denomination, &hop)...)
		}
	}
	return entity.DeduplicateRoutes(routes)
}

// QuoterCount returns the number of registered quoters.
func (c *RouteCatalog) QuoterCount() int {
	return len(c.quoters)
}
