package kafka

type DisputeEvent struct {
	DisputeID  string `json:"dispute_id"`
	TradeID    string `json:"trade_id"`
	OpenedByID string `json:"opened_by_id"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
}
