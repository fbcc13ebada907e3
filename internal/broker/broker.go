// Package broker defines the capability contract every broker
// connector must satisfy, plus the normalized record types that cross
// that boundary. Ingestion and the strategy engine depend only on this
// package, never on vendor SDKs.
package broker

import "context"

// Broker is the read-only capability contract of a connector.
//
// Implementations must:
//   - convert all numeric fields to exact decimals
//   - stamp a realistic as-of timestamp on every record
//   - preserve untranslated vendor fields in Extras / Raw
//   - never leak vendor payload shapes past this boundary
//
// Fetch calls may block on I/O; cancellation and timeouts propagate
// through the context.
type Broker interface {
	// FetchAccountSnapshots returns one or more account snapshots.
	// Most connectors return exactly one per account; the slice shape
	// leaves room for multi-subaccount connectors.
	FetchAccountSnapshots(ctx context.Context) ([]AccountSnapshotData, error)

	// FetchPositions returns all currently open positions as reported
	// by the broker at call time.
	FetchPositions(ctx context.Context) ([]PositionData, error)

	// FetchOpenOrders returns the current working-order view. Brokers
	// may include recently completed or cancelled orders; ingestion
	// upserts by broker order id either way.
	FetchOpenOrders(ctx context.Context) ([]OrderData, error)

	// FetchExecutions returns recent fills. The lookback window is
	// broker-dependent; ingestion dedupes on ExecID so re-fetching the
	// same fills is safe.
	FetchExecutions(ctx context.Context) ([]ExecutionData, error)

	// FetchOptionEvents returns option lifecycle events (assignments,
	// exercises, expirations).
	FetchOptionEvents(ctx context.Context) ([]OptionEventData, error)
}
