package rpc

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nav_checker/internal/domain/entity"
	"nav_checker/internal/pkg/metrics"
)

// ExecutionEndpointPrefix marks one endpoint in the configuration line as
// the transaction endpoint, e.g. "mev+https://rpc.mevblocker.io". Read
// traffic never uses it.
const ExecutionEndpointPrefix = "mev+"

// EndpointConfiguration is the parsed form of a provider configuration
// line: the ordered read endpoints and the optional transaction endpoint.
type EndpointConfiguration struct {
	CallEndpoints    []string
	TransactEndpoint string
}

// ParseEndpointConfiguration splits a whitespace-separated list of JSON-RPC
// URLs into call endpoints and at most one transaction endpoint. Endpoint
// order in the line is the failover order.
func ParseEndpointConfiguration(line string) (*EndpointConfiguration, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, entity.NewConfigurationError("no JSON-RPC endpoints configured")
	}

	cfg := &EndpointConfiguration{}
	seen := make(map[string]struct{}, len(fields))
	for _, raw := range fields {
		endpoint := raw
		isTransact := strings.HasPrefix(raw, ExecutionEndpointPrefix)
		if isTransact {
			endpoint = strings.TrimPrefix(raw, ExecutionEndpointPrefix)
		}

		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, entity.NewConfigurationError("invalid endpoint URL %q: %v", raw, err)
		}
		switch parsed.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return nil, entity.NewConfigurationError("unsupported scheme %q in endpoint %q", parsed.Scheme, raw)
		}

		key := strings.ToLower(endpoint)
		if _, dup := seen[key]; dup {
			return nil, entity.NewConfigurationError("duplicate endpoint %q", endpoint)
		}
		seen[key] = struct{}{}

		if isTransact {
			if cfg.TransactEndpoint != "" {
				return nil, entity.NewConfigurationError(
					"at most one %q endpoint is allowed, got %q and %q",
					ExecutionEndpointPrefix, cfg.TransactEndpoint, endpoint)
			}
			cfg.TransactEndpoint = endpoint
			continue
		}
		cfg.CallEndpoints = append(cfg.CallEndpoints, endpoint)
	}

	if len(cfg.CallEndpoints) == 0 {
		return nil, entity.NewConfigurationError("configuration line contains no call endpoints")
	}
	return cfg, nil
}

// FailoverConfig tunes the retry behaviour of a FailoverClient.
type FailoverConfig struct {
	// Retries is the number of attempts per request across all endpoints.
	Retries int

	// SwitchoverSleep is the pause before retrying on the next endpoint;
	// each further attempt multiplies it by BackoffFactor.
	SwitchoverSleep time.Duration
	BackoffFactor   float64

	// RequestsPerSecond caps the request rate per endpoint. Zero disables
	// limiting.
	RequestsPerSecond float64
}

func (c FailoverConfig) withDefaults() FailoverConfig {
	if c.Retries <= 0 {
		c.Retries = 6
	}
	if c.SwitchoverSleep <= 0 {
		c.SwitchoverSleep = 5 * time.Second
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 1.6
	}
	return c
}

type endpoint struct {
	url     string
	client  *gethrpc.Client
	limiter *rate.Limiter
}

// FailoverClient fans JSON-RPC requests over an ordered list of call
// endpoints. On a transport error it rotates to the next endpoint, sleeps
// with exponential backoff and retries; the JSON-RPC error of an individual
// batch element is never grounds for failover.
type FailoverClient struct {
	endpoints []endpoint
	transact  *gethrpc.Client
	cfg       FailoverConfig
	logger    *zap.Logger

	mu      sync.Mutex
	current int
}

// NewFailoverClient dials every configured endpoint. The transaction
// endpoint, when present, is dialed but kept out of the call rotation.
func NewFailoverClient(ctx context.Context, epCfg *EndpointConfiguration, cfg FailoverConfig, logger *zap.Logger) (*FailoverClient, error) {
	cfg = cfg.withDefaults()

	c := &FailoverClient{
		cfg:    cfg,
		logger: logger.Named("FailoverClient"),
	}
	for _, u := range epCfg.CallEndpoints {
		client, err := gethrpc.DialContext(ctx, u)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to dial %s: %w", u, err)
		}
		ep := endpoint{url: u, client: client}
		if cfg.RequestsPerSecond > 0 {
			ep.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		}
		c.endpoints = append(c.endpoints, ep)
	}
	if epCfg.TransactEndpoint != "" {
		client, err := gethrpc.DialContext(ctx, epCfg.TransactEndpoint)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to dial transaction endpoint %s: %w", epCfg.TransactEndpoint, err)
		}
		c.transact = client
	}

	c.logger.Info("JSON-RPC failover client ready",
		zap.Int("callEndpoints", len(c.endpoints)),
		zap.Bool("transactEndpoint", c.transact != nil))
	return c, nil
}

// CallContext issues a single JSON-RPC request with failover.
func (c *FailoverClient) CallContext(ctx context.Context, result any, method string, args ...any) error {
	return c.withFailover(ctx, func(client *gethrpc.Client) error {
		return client.CallContext(ctx, result, method, args...)
	})
}

// BatchCallContext issues a JSON-RPC batch with failover. Per-element
// errors inside a delivered batch are left on the elements.
func (c *FailoverClient) BatchCallContext(ctx context.Context, b []gethrpc.BatchElem) error {
	return c.withFailover(ctx, func(client *gethrpc.Client) error {
		return client.BatchCallContext(ctx, b)
	})
}

// LatestBlockNumber reads the current chain head.
func (c *FailoverClient) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := c.CallContext(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// ChainID reads the chain identifier of the connected network.
func (c *FailoverClient) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Big
	if err := c.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return 0, err
	}
	return (*big.Int)(&result).Uint64(), nil
}

// TransactClient returns the raw client for the transaction endpoint, or
// nil when the configuration line did not name one.
func (c *FailoverClient) TransactClient() *gethrpc.Client {
	return c.transact
}

// Close releases all dialed connections.
func (c *FailoverClient) Close() {
	for _, ep := range c.endpoints {
		if ep.client != nil {
			ep.client.Close()
		}
	}
	if c.transact != nil {
		c.transact.Close()
	}
}

func (c *FailoverClient) withFailover(ctx context.Context, call func(*gethrpc.Client) error) error {
	sleep := c.cfg.SwitchoverSleep
	var lastErr error

	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		ep := c.pickEndpoint()
		if ep.limiter != nil {
			if err := ep.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = call(ep.client)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.rotate()
		metrics.RPCEndpointSwitchesTotal.Inc()
		c.logger.Warn("JSON-RPC request failed, switching endpoint",
			zap.String("endpoint", ep.url),
			zap.Int("attempt", attempt+1),
			zap.Duration("sleep", sleep),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep = time.Duration(float64(sleep) * c.cfg.BackoffFactor)
	}
	return fmt.Errorf("all %d attempts failed: %w", c.cfg.Retries, lastErr)
}

func (c *FailoverClient) pickEndpoint() endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.current]
}

func (c *FailoverClient) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current + 1) % len(c.endpoints)
}
