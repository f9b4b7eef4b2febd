// Package provider supplies static and composite implementations of the
// application ports.
package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"nav_checker/internal/app/port"
	"nav_checker/internal/domain/entity"
)

// StaticUniverseProvider serves a fixed token address list from
// configuration.
type StaticUniverseProvider struct {
	universe entity.TradingUniverse
}

// NewStaticUniverseProvider builds a provider from hex address strings.
func NewStaticUniverseProvider(addresses []string) *StaticUniverseProvider {
	universe := entity.TradingUniverse{}
	for _, addr := range addresses {
		universe.SpotTokenAddresses = append(universe.SpotTokenAddresses, common.HexToAddress(addr))
	}
	return &StaticUniverseProvider{universe: universe}
}

func (p *StaticUniverseProvider) FetchUniverse(ctx context.Context) (entity.TradingUniverse, error) {
	return p.universe, nil
}

// CompositeUniverseProvider merges the universes of several providers,
// keeping the first occurrence of each address.
type CompositeUniverseProvider struct {
	providers []port.UniverseProvider
}

// NewCompositeUniverseProvider combines providers in precedence order.
func NewCompositeUniverseProvider(providers ...port.UniverseProvider) *CompositeUniverseProvider {
	return &CompositeUniverseProvider{providers: providers}
}

func (p *CompositeUniverseProvider) FetchUniverse(ctx context.Context) (entity.TradingUniverse, error) {
	merged := entity.TradingUniverse{}
	seen := make(map[common.Address]struct{})
	for _, provider := range p.providers {
		universe, err := provider.FetchUniverse(ctx)
		if err != nil {
			return entity.TradingUniverse{}, err
		}
		for _, addr := range universe.SpotTokenAddresses {
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			merged.SpotTokenAddresses = append(merged.SpotTokenAddresses, addr)
		}
	}
	return merged, nil
}
