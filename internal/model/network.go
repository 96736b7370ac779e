package model

type NetworkInterface struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	State string `json:"state"`
}

type InterfaceCounters struct {
	Interface string `json:"interface"`
	RxBytes   uint64 `json:"rx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxBytes   uint64 `json:"tx_bytes"`
	TxPackets uint64 `json:"tx_packets"`
}

type TCPConnection struct {
	State        string `json:"state"`
	RecvQ        uint32 `json:"recv_q"`
	SendQ        uint32 `json:"send_q"`
	LocalAddress string `json:"local_address"`
	PeerAddress  string `json:"peer_address"`
}
