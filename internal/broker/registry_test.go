package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolveUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(AccountRef{Code: "U1234567", Kind: "ETRADE"})
	require.Error(t, err)

	var unsupported *UnsupportedBrokerError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "U1234567", unsupported.AccountCode)
	assert.Equal(t, "ETRADE", unsupported.Kind)
}

func TestRegistryResolveAndKinds(t *testing.T) {
	r := NewRegistry()
	fake := &Fake{}
	r.Register("SIM", func(ref AccountRef) (Broker, error) { return fake, nil })
	r.Register("IBKR", func(ref AccountRef) (Broker, error) { return fake, nil })

	b, err := r.Resolve(AccountRef{Code: "DU0000001", Kind: "SIM"})
	require.NoError(t, err)
	assert.Same(t, fake, b)

	assert.Equal(t, []string{"IBKR", "SIM"}, r.Kinds())
}

func TestFakeReturnsCopies(t *testing.T) {
	fake := &Fake{Positions: []PositionData{SimplePosition("DU0000001", "AAPL")}}
	ctx := context.Background()

	first, err := fake.FetchPositions(ctx)
	require.NoError(t, err)
	first[0].Symbol = "MUTATED"

	second, err := fake.FetchPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", second[0].Symbol)
}

func TestFakeErrShortCircuits(t *testing.T) {
	boom := errors.New("connector down")
	fake := &Fake{Err: boom}
	_, err := fake.FetchExecutions(context.Background())
	require.ErrorIs(t, err, boom)
}
