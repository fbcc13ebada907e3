package ibkr

import (
	"context"

	"wheelhouse/internal/broker"
	"wheelhouse/internal/pkg/circuit"
)

// Client implements broker.Broker for one IBKR account. It owns a
// Transport (session lifecycle + raw payloads) and runs every fetch
// through the mappers so vendor payload shapes never escape this
// package.
type Client struct {
	accountCode string
	transport   Transport
	breaker     *circuit.Breaker
}

var _ broker.Broker = (*Client)(nil)

// NewClient wires a client around an existing transport. Used directly
// by tests; production code goes through NewFactory.
func NewClient(accountCode string, transport Transport, breaker *circuit.Breaker) *Client {
	return &Client{accountCode: accountCode, transport: transport, breaker: breaker}
}

// NewFactory returns a broker.Factory for the registry. All accounts
// of the same kind share the gateway config but each gets its own
// client bound to its account code.
func NewFactory(cfg Config) broker.Factory {
	cfg = cfg.withDefaults()
	return func(ref broker.AccountRef) (broker.Broker, error) {
		transport, err := NewGatewayTransport(cfg)
		if err != nil {
			return nil, err
		}
		breaker := circuit.NewBreaker("ibkr:"+ref.Code, cfg.BreakerThreshold, cfg.BreakerCooloff)
		return NewClient(ref.Code, transport, breaker), nil
	}
}

func (c *Client) FetchAccountSnapshots(ctx context.Context) ([]broker.AccountSnapshotData, error) {
	var out []broker.AccountSnapshotData
	err := c.withSession(ctx, func() error {
		raw, err := c.transport.FetchRawAccount(ctx, c.accountCode)
		if err != nil {
			return err
		}
		snapshot, err := mapAccountSnapshot(raw, c.accountCode)
		if err != nil {
			return err
		}
		// One gateway account maps to one snapshot; the interface
		// stays slice-shaped for multi-subaccount connectors.
		out = []broker.AccountSnapshotData{snapshot}
		return nil
	})
	return out, err
}

func (c *Client) FetchPositions(ctx context.Context) ([]broker.PositionData, error) {
	var out []broker.PositionData
	err := c.withSession(ctx, func() error {
		raw, err := c.transport.FetchRawPositions(ctx, c.accountCode)
		if err != nil {
			return err
		}
		out, err = mapPositions(raw, c.accountCode)
		return err
	})
	return out, err
}

func (c *Client) FetchOpenOrders(ctx context.Context) ([]broker.OrderData, error) {
	var out []broker.OrderData
	err := c.withSession(ctx, func() error {
		raw, err := c.transport.FetchRawOrders(ctx, c.accountCode)
		if err != nil {
			return err
		}
		out, err = mapOrders(raw, c.accountCode)
		return err
	})
	return out, err
}

func (c *Client) FetchExecutions(ctx context.Context) ([]broker.ExecutionData, error) {
	var out []broker.ExecutionData
	err := c.withSession(ctx, func() error {
		raw, err := c.transport.FetchRawExecutions(ctx, c.accountCode)
		if err != nil {
			return err
		}
		out, err = mapExecutions(raw, c.accountCode)
		return err
	})
	return out, err
}

func (c *Client) FetchOptionEvents(ctx context.Context) ([]broker.OptionEventData, error) {
	var out []broker.OptionEventData
	err := c.withSession(ctx, func() error {
		raw, err := c.transport.FetchRawOptionEvents(ctx, c.accountCode)
		if err != nil {
			return err
		}
		out, err = mapOptionEvents(raw, c.accountCode)
		return err
	})
	return out, err
}

// withSession connects (breaker-gated), runs fn, disconnects. Connect
// failures count against the breaker; mapping failures do not.
func (c *Client) withSession(ctx context.Context, fn func() error) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return &broker.ConnectionError{Reason: "circuit open for account " + c.accountCode}
	}
	if err := c.transport.Connect(ctx); err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		return err
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	defer c.transport.Disconnect()
	return fn()
}
