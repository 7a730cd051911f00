package model

// InboundAddress is a vault the network accepts deposits on for one chain.
type InboundAddress struct {
	Chain   string `json:"chain"`
	PubKey  string `json:"pub_key"`
	Address string `json:"address"`
	Router  string `json:"router,omitempty"`
	Halted  bool   `json:"halted"`
	GasRate string `json:"gas_rate,omitempty"`
}
