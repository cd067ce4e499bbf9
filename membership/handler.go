package membership

import (
	"context"

	"github.com/chinnucsk/mem3/transport"
)

// Handler adapts the service to the peer-facing RPC surface. Join is
// deliberately absent, it is a local-only operation.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) LocalState(ctx context.Context) (*transport.State, error) {
	st, err := h.service.State(ctx)
	if err != nil {
		return nil, err
	}

	return toWireState(st), nil
}

func (h *Handler) GossipCall(ctx context.Context, remote *transport.State) (*transport.GossipReply, error) {
	res, err := h.service.call(ctx, gossipCallMsg{remote: fromWireState(remote)})
	if err != nil {
		return nil, err
	}

	return res.(*transport.GossipReply), nil
}

func (h *Handler) GossipCast(remote *transport.State) {
	h.service.cast(gossipCastMsg{remote: fromWireState(remote)})
}
