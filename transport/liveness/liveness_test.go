package liveness

import (
	"encoding/json"
	"testing"

	"github.com/hashicorp/memberlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinnucsk/mem3/transport"
)

func metaFor(t *testing.T, rpcAddr string) []byte {
	t.Helper()

	meta, err := json.Marshal(nodeMeta{RPCAddr: rpcAddr})
	require.NoError(t, err)

	return meta
}

func TestMonitor_NotifyRecordsAddress(t *testing.T) {
	monitor := NewMonitor(DefaultConfig())

	node := &memberlist.Node{
		Name: "n2",
		Meta: metaFor(t, "10.0.0.2:5000"),
	}

	monitor.notify(node, true)

	addr, ok := monitor.Lookup("n2")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:5000", addr)

	event := <-monitor.Events()
	assert.Equal(t, transport.LivenessEvent{NodeID: "n2", Up: true}, event)
}

func TestMonitor_NotifyDown(t *testing.T) {
	monitor := NewMonitor(DefaultConfig())

	monitor.notify(&memberlist.Node{Name: "n2", Meta: metaFor(t, "10.0.0.2:5000")}, true)
	<-monitor.Events()

	monitor.notify(&memberlist.Node{Name: "n2"}, false)

	event := <-monitor.Events()
	assert.Equal(t, transport.LivenessEvent{NodeID: "n2", Up: false}, event)

	// The last advertised address survives a down transition.
	addr, ok := monitor.Lookup("n2")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:5000", addr)
}

func TestMonitor_NotifyBadMetaIgnored(t *testing.T) {
	monitor := NewMonitor(DefaultConfig())

	monitor.notify(&memberlist.Node{Name: "n2", Meta: []byte("{broken")}, true)

	_, ok := monitor.Lookup("n2")
	assert.False(t, ok)

	event := <-monitor.Events()
	assert.Equal(t, "n2", event.NodeID)
}

func TestMonitor_FullBufferDropsEvent(t *testing.T) {
	conf := DefaultConfig()
	conf.EventBuffer = 1

	monitor := NewMonitor(conf)

	monitor.notify(&memberlist.Node{Name: "n2"}, true)
	monitor.notify(&memberlist.Node{Name: "n3"}, true)

	event := <-monitor.Events()
	assert.Equal(t, "n2", event.NodeID)
	assert.Empty(t, monitor.Events())
}

func TestMetaDelegate(t *testing.T) {
	d := &metaDelegate{meta: []byte("0123456789")}

	assert.Equal(t, []byte("0123456789"), d.NodeMeta(32))
	assert.Nil(t, d.NodeMeta(4))
}

func TestSplitHostPort(t *testing.T) {
	tests := map[string]struct {
		addr     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		"HostAndPort": {addr: "127.0.0.1:7946", wantHost: "127.0.0.1", wantPort: 7946},
		"EmptyHost":   {addr: ":7946", wantHost: "", wantPort: 7946},
		"NoPort":      {addr: "127.0.0.1", wantErr: true},
		"BadPort":     {addr: "127.0.0.1:http", wantErr: true},
		"PortRange":   {addr: "127.0.0.1:70000", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			host, port, err := splitHostPort(tt.addr)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}
