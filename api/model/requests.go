package model

type GetNodesResponse struct {
	Nodes []string `json:"Nodes"`
}

type GetFullNodesResponse struct {
	Nodes []Node `json:"Nodes"`
}

type GetClockResponse struct {
	Clock map[string]uint64 `json:"Clock"`
}

type GetStatesResponse struct {
	Groups         []StateGroup `json:"Groups"`
	BadNodes       []string     `json:"BadNodes,omitempty"`
	NonMemberNodes []string     `json:"NonMemberNodes,omitempty"`
}

type JoinRequest struct {
	Kind      string            `json:"Kind"`
	Entries   []Node            `json:"Entries,omitempty"`
	PingNode  string            `json:"PingNode,omitempty"`
	OldNodeID string            `json:"OldNodeID,omitempty"`
	Options   map[string]string `json:"Options,omitempty"`
	NodeID    string            `json:"NodeID,omitempty"`
}

type StatusResponse struct {
	Status string `json:"Status"`
	Error  string `json:"Error,omitempty"`
}
