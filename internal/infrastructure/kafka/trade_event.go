package kafka

type TradeEvent struct {
	TradeID        string `json:"trade_id"`
	Reference      string `json:"reference"`
	BuyerID        string `json:"buyer_id"`
	SellerID       string `json:"seller_id"`
	CardInstanceID string `json:"card_instance_id"`
	Price          int64  `json:"price"`
	Status         string `json:"status"`
	Stage          string `json:"stage"`
}
