package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinnucsk/mem3/internal/vclock"
	"github.com/chinnucsk/mem3/transport"
)

func newStatesService(t *testing.T, trans *mockTransport) *Service {
	t.Helper()

	conf := DefaultConfig()
	conf.NodeID = "n1"
	conf.Transport = trans
	conf.Test = true

	service := New(conf)
	require.NoError(t, service.Start(context.Background()))
	t.Cleanup(service.Stop)

	require.NoError(t, service.Join(context.Background(), JoinRequest{
		Kind: JoinInit,
		Entries: []NodeEntry{
			{Position: 1, NodeID: "n1"},
			{Position: 2, NodeID: "n2"},
			{Position: 3, NodeID: "n3"},
		},
	}))

	return service
}

func TestService_States(t *testing.T) {
	ctx := context.Background()

	trans := newMockTransport()
	trans.upSet = []string{"n1", "n2", "n3", "n4"}

	service := newStatesService(t, trans)

	local, err := service.State(ctx)
	require.NoError(t, err)

	trans.stateFunc = func(nodeID string) (*transport.State, error) {
		if nodeID == "n3" {
			return nil, errors.New("connection refused")
		}

		return toWireState(local), nil
	}

	states, err := service.States(ctx)
	require.NoError(t, err)

	require.Len(t, states.Groups, 1)
	assert.Equal(t, []string{"n1", "n2"}, states.Groups[0].Nodes)
	assert.Equal(t, local.Clock, states.Groups[0].State.Clock)

	assert.Equal(t, []string{"n3"}, states.BadNodes)
	assert.Equal(t, []string{"n4"}, states.NonMemberNodes)
}

func TestService_StatesDiverged(t *testing.T) {
	ctx := context.Background()

	trans := newMockTransport()
	trans.upSet = []string{"n1", "n2", "n3"}

	service := newStatesService(t, trans)

	local, err := service.State(ctx)
	require.NoError(t, err)

	diverged := local.Clone()
	diverged.Clock.IncrementFor("n2")

	trans.stateFunc = func(nodeID string) (*transport.State, error) {
		if nodeID == "n2" {
			return toWireState(diverged), nil
		}

		return toWireState(local), nil
	}

	states, err := service.States(ctx)
	require.NoError(t, err)

	require.Len(t, states.Groups, 2)
	assert.Equal(t, []string{"n1", "n3"}, states.Groups[0].Nodes)
	assert.Equal(t, []string{"n2"}, states.Groups[1].Nodes)

	assert.Equal(t, vclock.Vector{"n1": 1, "n2": 1}, states.Groups[1].State.Clock)
	assert.Empty(t, states.BadNodes)
	assert.Empty(t, states.NonMemberNodes)
}
