package service

import (
	"testing"

	"nav_checker/internal/domain/entity"
)

func TestBuildRoutesPriorityOrder(t *testing.T) {
	q1 := &fakeQuoter{name: "q1"}
	q2 := &fakeQuoter{name: "q2"}
	catalog := NewRouteCatalog(usdc, []entity.TokenInfo{weth}, []entity.Quoter{q1, q2})

	routes := catalog.BuildRoutes(dino)
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4", len(routes))
	}

	wantLabels := []string{"DINO -> USDC", "DINO -> USDC", "DINO -> WETH -> USDC", "DINO -> WETH -> USDC"}
	wantQuoters := []string{"q1", "q2", "q1", "q2"}
	for i, route := range routes {
		if route.PathLabel() != wantLabels[i] || route.Quoter.Name() != wantQuoters[i] {
			t.Errorf("route %d = %s via %s, want %s via %s",
				i, route.PathLabel(), route.Quoter.Name(), wantLabels[i], wantQuoters[i])
		}
	}
}

func TestBuildRoutesDenominationHasNoRoutes(t *testing.T) {
	catalog := NewRouteCatalog(usdc, []entity.TokenInfo{weth}, []entity.Quoter{&fakeQuoter{name: "q1"}})
	if routes := catalog.BuildRoutes(usdc); routes != nil {
		t.Errorf("denomination token got %d routes, want none", len(routes))
	}
}

func TestBuildRoutesSkipsDegenerateIntermediaries(t *testing.T) {
	// Selling WETH itself must not produce a WETH -> WETH -> USDC route.
	catalog := NewRouteCatalog(usdc, []entity.TokenInfo{weth}, []entity.Quoter{&fakeQuoter{name: "q1"}})
	routes := catalog.BuildRoutes(weth)
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1 direct route", len(routes))
	}
	if routes[0].Intermediary != nil {
		t.Error("WETH route must not pass through WETH")
	}

	// An intermediary equal to the denomination adds nothing over the
	// direct route.
	catalog = NewRouteCatalog(usdc, []entity.TokenInfo{usdc}, []entity.Quoter{&fakeQuoter{name: "q1"}})
	routes = catalog.BuildRoutes(dino)
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
}
