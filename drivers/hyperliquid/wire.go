package hyperliquid

// Hyperliquid's info/exchange endpoints speak a single flat JSON
// request/response shape per action type rather than Bybit/Binance's
// many REST paths, grounded on the public API's documented request
// bodies (type-tagged requests to POST /info and POST /exchange).

type infoRequest struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
	User string `json:"user,omitempty"`
}

type metaResponse struct {
	Universe []assetMeta `json:"universe"`
}

type assetMeta struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
}

type l2BookResponse struct {
	Coin   string       `json:"coin"`
	Levels [][]bookLevel `json:"levels"`
	Time   int64        `json:"time"`
}

type bookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

type allMidsResponse map[string]string

type candleRequest struct {
	Type string `json:"type"`
	Req  struct {
		Coin      string `json:"coin"`
		Interval  string `json:"interval"`
		StartTime int64  `json:"startTime"`
		EndTime   int64  `json:"endTime"`
	} `json:"req"`
}

type candleWire struct {
	T int64  `json:"t"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V string `json:"v"`
}

type fundingHistoryRequest struct {
	Type      string `json:"type"`
	Coin      string `json:"coin"`
	StartTime int64  `json:"startTime"`
}

type fundingWire struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
	Time        int64  `json:"time"`
}

type clearinghouseStateResponse struct {
	AssetPositions []assetPosition `json:"assetPositions"`
	MarginSummary  struct {
		AccountValue    string `json:"accountValue"`
		TotalMarginUsed string `json:"totalMarginUsed"`
	} `json:"marginSummary"`
	Withdrawable string `json:"withdrawable"`
}

type assetPosition struct {
	Position struct {
		Coin           string `json:"coin"`
		Szi            string `json:"szi"`
		EntryPx        string `json:"entryPx"`
		PositionValue  string `json:"positionValue"`
		UnrealizedPnl  string `json:"unrealizedPnl"`
		Leverage       struct {
			Type  string `json:"type"`
			Value int    `json:"value"`
		} `json:"leverage"`
		LiquidationPx string `json:"liquidationPx"`
		MarginUsed    string `json:"marginUsed"`
	} `json:"position"`
}

type openOrdersRequest = infoRequest

type openOrderWire struct {
	Coin      string `json:"coin"`
	Side      string `json:"side"`
	LimitPx   string `json:"limitPx"`
	Sz        string `json:"sz"`
	OrigSz    string `json:"origSz"`
	OID       int64  `json:"oid"`
	Timestamp int64  `json:"timestamp"`
	ReduceOnly bool  `json:"reduceOnly"`
}

// exchangeRequest is the envelope every trading action wraps: a
// type-tagged action, the signer's nonce, and the EIP-712 signature
// produced by signing that action.
type exchangeRequest struct {
	Action       any            `json:"action"`
	Nonce        int64          `json:"nonce"`
	Signature    exchangeSig    `json:"signature"`
	VaultAddress string         `json:"vaultAddress,omitempty"`
}

type exchangeSig struct {
	R string `json:"r"`
	S string `json:"s"`
	V int64  `json:"v"`
}

type orderAction struct {
	Type     string       `json:"type"`
	Orders   []orderWire  `json:"orders"`
	Grouping string       `json:"grouping"`
}

type orderWire struct {
	Asset      int    `json:"a"`
	IsBuy      bool   `json:"b"`
	Price      string `json:"p"`
	Size       string `json:"s"`
	ReduceOnly bool   `json:"r"`
	OrderType  orderTypeWire `json:"t"`
	ClientOID  string `json:"c,omitempty"`
}

type orderTypeWire struct {
	Limit *limitWire `json:"limit,omitempty"`
}

type limitWire struct {
	TIF string `json:"tif"`
}

type cancelAction struct {
	Type    string        `json:"type"`
	Cancels []cancelWire `json:"cancels"`
}

type cancelWire struct {
	Asset int   `json:"a"`
	OID   int64 `json:"o"`
}

type updateLeverageAction struct {
	Type     string `json:"type"`
	Asset    int    `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage int    `json:"leverage"`
}

type exchangeResponse struct {
	Status   string          `json:"status"`
	Response exchangeRespBody `json:"response"`
}

type exchangeRespBody struct {
	Type string `json:"type"`
	Data struct {
		Statuses []orderStatusWire `json:"statuses"`
	} `json:"data"`
}

type orderStatusWire struct {
	Resting *struct {
		OID int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		OID     int64  `json:"oid"`
		AvgPx   string `json:"avgPx"`
		TotalSz string `json:"totalSz"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}
