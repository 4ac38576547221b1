package bybit

// envelope is Bybit v5's common response wrapper: every endpoint returns
// retCode 0 on success with the payload under Result, grounded on the
// teacher's services/bybit/client.go Request/PublicRequest decoding.
type envelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

type instrumentsResult struct {
	List []instrument `json:"list"`
}

type instrument struct {
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	SettleCoin   string `json:"settleCoin"`
	LotSizeFilter struct {
		QtyStep string `json:"qtyStep"`
		MinQty  string `json:"minOrderQty"`
	} `json:"lotSizeFilter"`
	PriceFilter struct {
		TickSize string `json:"tickSize"`
	} `json:"priceFilter"`
	LeverageFilter struct {
		MaxLeverage string `json:"maxLeverage"`
	} `json:"leverageFilter"`
}

type tickersResult struct {
	List []tickerWire `json:"list"`
}

type tickerWire struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	Bid1Price    string `json:"bid1Price"`
	Ask1Price    string `json:"ask1Price"`
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
	PrevPrice24h string `json:"prevPrice24h"`
	Volume24h    string `json:"volume24h"`
	Turnover24h  string `json:"turnover24h"`
}

type orderBookWire struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
	Ts     int64      `json:"ts"`
}

type klineResult struct {
	List [][]string `json:"list"`
}

type fundingHistoryResult struct {
	List []fundingWire `json:"list"`
}

type fundingWire struct {
	Symbol          string `json:"symbol"`
	FundingRate     string `json:"fundingRate"`
	FundingRateTimestamp string `json:"fundingRateTimestamp"`
}

type orderCreateResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

type orderListResult struct {
	List []orderWire `json:"list"`
}

type orderWire struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	CumExecQty  string `json:"cumExecQty"`
	CumExecValue string `json:"cumExecValue"`
	AvgPrice    string `json:"avgPrice"`
	OrderStatus string `json:"orderStatus"`
	ReduceOnly  bool   `json:"reduceOnly"`
	CreatedTime string `json:"createdTime"`
}

type positionListResult struct {
	List []positionWire `json:"list"`
}

type positionWire struct {
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	Size           string `json:"size"`
	AvgPrice       string `json:"avgPrice"`
	MarkPrice      string `json:"markPrice"`
	LiqPrice       string `json:"liqPrice"`
	UnrealisedPnl  string `json:"unrealisedPnl"`
	CumRealisedPnl string `json:"cumRealisedPnl"`
	Leverage       string `json:"leverage"`
	TradeMode      int    `json:"tradeMode"` // 0=cross, 1=isolated
	PositionIM     string `json:"positionIM"`
	UpdatedTime    string `json:"updatedTime"`
}

type walletBalanceResult struct {
	List []walletWire `json:"list"`
}

type walletWire struct {
	Coin []coinBalanceWire `json:"coin"`
}

type coinBalanceWire struct {
	Coin            string `json:"coin"`
	WalletBalance   string `json:"walletBalance"`
	Free            string `json:"availableToWithdraw"`
	Locked          string `json:"locked"`
}

type executionListResult struct {
	List []executionWire `json:"list"`
}

type executionWire struct {
	ExecID    string `json:"execId"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	ExecPrice string `json:"execPrice"`
	ExecQty   string `json:"execQty"`
	ExecValue string `json:"execValue"`
	ExecTime  string `json:"execTime"`
}
