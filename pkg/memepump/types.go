package memepump

import (
	"encoding/json"
	"time"
)

// TradeSide is the direction of a trade on the bonding curve.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Valid reports whether the side is one the server accepts.
func (s TradeSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Coin is a user-created token priced on a bonding curve.
type Coin struct {
	ID          string    `json:"id"`          // Opaque stable identifier
	Name        string    `json:"name"`        // Display name
	Symbol      string    `json:"symbol"`      // Ticker, e.g. "PEPE"
	Description string    `json:"description"` // Free-form text set by the creator
	Image       string    `json:"image"`       // Emoji or image URI
	Price       float64   `json:"price"`       // Current unit price, always > 0
	MarketCap   float64   `json:"marketCap"`   // Supply * price
	Progress    float64   `json:"progress"`    // Percent of graduation target reached, 0-100
	Holders     int       `json:"holders"`     // Distinct holder count
	TotalSupply float64   `json:"totalSupply"` // Cumulative supply sold on the curve
	Creator     string    `json:"creator"`     // Creator username or wallet
	CreatedAt   time.Time `json:"createdAt"`

	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Website  string `json:"website,omitempty"`

	CurveType  string  `json:"curveType,omitempty"`  // "exponential", "linear", "constant_product"
	CurveK     float64 `json:"curveK,omitempty"`     // Steepness for exponential curves
	CurveSlope float64 `json:"curveSlope,omitempty"` // Slope for linear curves
	BasePrice  float64 `json:"basePrice,omitempty"`  // Starting price of the curve

	Graduated bool `json:"graduated,omitempty"`
}

// Trade is an executed buy or sell. Trades are immutable once created.
type Trade struct {
	ID        string    `json:"id"`
	CoinID    string    `json:"coinId"`
	Type      TradeSide `json:"type"`
	Amount    float64   `json:"amount"` // In base currency units
	Price     float64   `json:"price"`  // Price at execution
	Wallet    string    `json:"wallet,omitempty"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Comment is a message left on a coin's page. Comments are append-only per coin.
type Comment struct {
	ID        string    `json:"id"`
	CoinID    string    `json:"coinId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Socials are the optional profile links of a user.
type Socials struct {
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Website  string `json:"website,omitempty"`
}

// User is the identity record returned by the server and kept for the local session.
// The PIN is never part of it.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	Socials
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// PortfolioItem is one holding returned by GET /users/:id/portfolio.
type PortfolioItem struct {
	Coin     *Coin   `json:"coin"`
	Amount   float64 `json:"amount"`
	Value    float64 `json:"value"`
	AvgPrice float64 `json:"avgPrice"`
}

// WalletChallenge is the ownership message the server asks a wallet to sign.
type WalletChallenge struct {
	Message string `json:"message"`
	Address string `json:"address"`
}

// Envelope is a single streaming frame: {"type": "...", "data": ...}.
type Envelope struct {
	Type string          `json:"type"` // "coins", "coinCreated", "trade" or "comment"
	Data json.RawMessage `json:"data"` // Delay decoding until the kind is known
}

// TradePayload is the data of a "trade" frame: the trade plus the server's post-trade coin state.
type TradePayload struct {
	Trade Trade `json:"trade"`
	Coin  Coin  `json:"coin"`
}

// errorResponse is the body the server sends with non-2xx statuses.
type errorResponse struct {
	Error string `json:"error"`
}
