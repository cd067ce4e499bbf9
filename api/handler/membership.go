package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/chinnucsk/mem3/api/model"
	"github.com/chinnucsk/mem3/membership"
)

type MembershipHandler struct {
	service *membership.Service
}

func NewMembershipHandler(service *membership.Service) *MembershipHandler {
	return &MembershipHandler{
		service: service,
	}
}

func (api *MembershipHandler) Register(r chi.Router) {
	r.Get("/nodes", api.getNodes)
	r.Get("/fullnodes", api.getFullNodes)
	r.Get("/clock", api.getClock)
	r.Get("/state", api.getState)
	r.Get("/states", api.getStates)
	r.Post("/join", api.postJoin)
	r.Post("/gossip", api.postGossip)
	r.Post("/reset", api.postReset)
}

func (api *MembershipHandler) getNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := api.service.Nodes(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.GetNodesResponse{Nodes: nodes})
}

func (api *MembershipHandler) getFullNodes(w http.ResponseWriter, r *http.Request) {
	entries, err := api.service.FullNodes(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.GetFullNodesResponse{Nodes: toModelNodes(entries)})
}

func (api *MembershipHandler) getClock(w http.ResponseWriter, r *http.Request) {
	clock, err := api.service.Clock(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.GetClockResponse{Clock: clock})
}

func (api *MembershipHandler) getState(w http.ResponseWriter, r *http.Request) {
	state, err := api.service.State(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, toModelState(state))
}

func (api *MembershipHandler) getStates(w http.ResponseWriter, r *http.Request) {
	states, err := api.service.States(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	groups := make([]model.StateGroup, len(states.Groups))
	for i, g := range states.Groups {
		groups[i] = model.StateGroup{
			Nodes: g.Nodes,
			State: toModelState(g.State),
		}
	}

	render.JSON(w, r, model.GetStatesResponse{
		Groups:         groups,
		BadNodes:       states.BadNodes,
		NonMemberNodes: states.NonMemberNodes,
	})
}

func (api *MembershipHandler) postJoin(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, model.StatusResponse{Status: "error", Error: err.Error()})

		return
	}

	entries := make([]membership.NodeEntry, len(req.Entries))
	for i, n := range req.Entries {
		entries[i] = membership.NodeEntry{
			Position: n.Position,
			NodeID:   n.NodeID,
			Options:  n.Options,
		}
	}

	err := api.service.Join(r.Context(), membership.JoinRequest{
		Kind:      membership.JoinKind(req.Kind),
		Entries:   entries,
		PingNode:  req.PingNode,
		OldNodeID: req.OldNodeID,
		Options:   req.Options,
		NodeID:    req.NodeID,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.StatusResponse{Status: "ok"})
}

func (api *MembershipHandler) postGossip(w http.ResponseWriter, r *http.Request) {
	if err := api.service.StartGossip(r.Context()); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.StatusResponse{Status: "ok"})
}

func (api *MembershipHandler) postReset(w http.ResponseWriter, r *http.Request) {
	if err := api.service.Reset(r.Context()); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, model.StatusResponse{Status: "ok"})
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var (
		nodeExists *membership.NodeExistsError
		posTaken   *membership.PositionTakenError
	)

	switch {
	case errors.As(err, &nodeExists), errors.As(err, &posTaken):
		status = http.StatusConflict
	case errors.Is(err, membership.ErrUnknownJoinType):
		status = http.StatusBadRequest
	case errors.Is(err, membership.ErrNotReset):
		status = http.StatusForbidden
	}

	render.Status(r, status)
	render.JSON(w, r, model.StatusResponse{Status: "error", Error: err.Error()})
}

func toModelNodes(entries []membership.NodeEntry) []model.Node {
	nodes := make([]model.Node, len(entries))
	for i, e := range entries {
		nodes[i] = model.Node{
			Position: e.Position,
			NodeID:   e.NodeID,
			Options:  e.Options,
		}
	}

	return nodes
}

func toModelState(s *membership.State) model.State {
	return model.State{
		Clock: s.Clock,
		Ring:  toModelNodes(s.Ring),
		Args:  s.Args,
	}
}
