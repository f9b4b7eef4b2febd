// Package tokenlist loads a trading universe from a hosted token list in
// the Uniswap token list format.
package tokenlist

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"nav_checker/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenListDocument mirrors the hosted token list payload; fields not
// needed for universe construction are omitted.
type tokenListDocument struct {
	Name   string `json:"name"`
	Tokens []struct {
		ChainID  uint64 `json:"chainId"`
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	} `json:"tokens"`
}

// Client fetches a token list over HTTP and filters it down to one chain.
// It implements port.UniverseProvider.
type Client struct {
	client  *fasthttp.Client
	url     string
	chainID uint64
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a token list client bound to one list URL and chain.
func NewClient(url string, chainID uint64, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		url:     url,
		chainID: chainID,
		timeout: timeout,
		logger:  logger.Named("TokenListClient"),
	}
}

// FetchUniverse downloads the list and returns the addresses of every
// token on the client's chain.
func (c *Client) FetchUniverse(ctx context.Context) (entity.TradingUniverse, error) {
	c.logger.Debug("Fetching token list", zap.String("url", c.url))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return entity.TradingUniverse{}, fmt.Errorf("token list request to %s failed: %w", c.url, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return entity.TradingUniverse{}, fmt.Errorf("token list request to %s failed: %w", c.url, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return entity.TradingUniverse{}, fmt.Errorf("token list request to %s failed with status %d", c.url, resp.StatusCode())
	}

	var doc tokenListDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return entity.TradingUniverse{}, fmt.Errorf("failed to decode token list from %s: %w", c.url, err)
	}

	universe := entity.TradingUniverse{}
	seen := make(map[common.Address]struct{}, len(doc.Tokens))
	for _, token := range doc.Tokens {
		if token.ChainID != c.chainID {
			continue
		}
		addr := common.HexToAddress(token.Address)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		universe.SpotTokenAddresses = append(universe.SpotTokenAddresses, addr)
	}

	c.logger.Info("Token list loaded",
		zap.String("list", doc.Name),
		zap.Int("totalTokens", len(doc.Tokens)),
		zap.Int("chainTokens", len(universe.SpotTokenAddresses)),
		zap.Uint64("chainID", c.chainID))
	return universe, nil
}
