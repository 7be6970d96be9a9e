// Package viewapi serves read-only JSON views of the market store over HTTP.
package viewapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"memepump/internal/curve"
	"memepump/internal/market/memorystore"
	"memepump/pkg/memepump"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxCurvePoints = 1001

// Server exposes MarketStore snapshots. It never writes to the store.
type Server struct {
	store  *memorystore.MarketStore
	curve  curve.Curve
	points int
	state  func() memepump.ConnState
	logger *zap.Logger

	router     *mux.Router
	httpServer *http.Server
}

type Options struct {
	Addr   string
	Curve  curve.Curve
	Points int                       // Chart sample count, DefaultPoints when <= 0
	State  func() memepump.ConnState // Optional connection state probe for /status
}

func NewServer(store *memorystore.MarketStore, opts Options, logger *zap.Logger) *Server {
	if opts.Points <= 0 {
		opts.Points = curve.DefaultPoints
	}
	s := &Server{
		store:  store,
		curve:  opts.Curve,
		points: opts.Points,
		state:  opts.State,
		logger: logger,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET")
	router.HandleFunc("/king", s.handleKing).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")

	coins := router.PathPrefix("/coins").Subrouter()
	coins.HandleFunc("", s.handleListCoins).Methods("GET")
	coins.HandleFunc("/{id}", s.handleGetCoin).Methods("GET")
	coins.HandleFunc("/{id}/trades", s.handleCoinTrades).Methods("GET")
	coins.HandleFunc("/{id}/comments", s.handleCoinComments).Methods("GET")
	coins.HandleFunc("/{id}/curve", s.handleCoinCurve).Methods("GET")

	router.Use(s.loggingMiddleware)
	return router
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background. Listen errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("view api listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("view api stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("view request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleListCoins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coins := s.store.Snapshot().FilterCoins(q.Get("q"))
	if field := q.Get("sort"); field != "" {
		coins = memorystore.SortCoins(coins, memorystore.SortField(field), q.Get("order") == "asc")
	}
	s.writeJSON(w, http.StatusOK, coins)
}

func (s *Server) handleGetCoin(w http.ResponseWriter, r *http.Request) {
	coin, ok := s.coin(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, coin)
}

func (s *Server) handleCoinTrades(w http.ResponseWriter, r *http.Request) {
	coin, ok := s.coin(w, r)
	if !ok {
		return
	}
	trades := s.store.Snapshot().TradesFor(coin.ID)
	if trades == nil {
		trades = []memepump.Trade{}
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleCoinComments(w http.ResponseWriter, r *http.Request) {
	coin, ok := s.coin(w, r)
	if !ok {
		return
	}
	comments := s.store.Snapshot().CommentsFor(coin.ID)
	if comments == nil {
		comments = []memepump.Comment{}
	}
	s.writeJSON(w, http.StatusOK, comments)
}

type curveLabel struct {
	Supply    string `json:"supply"`
	Price     string `json:"price"`
	MarketCap string `json:"marketCap"`
}

type curveResponse struct {
	CoinID          string        `json:"coinId"`
	Type            curve.Type    `json:"type"`
	LivePrice       float64       `json:"livePrice"` // Server price, never the projection
	Progress        string        `json:"progress"`
	TargetMarketCap float64       `json:"targetMarketCap"`
	Points          []curve.Point `json:"points"`
	Labels          []curveLabel  `json:"labels"`
	Graduation      *curve.Point  `json:"graduation,omitempty"`
}

func (s *Server) handleCoinCurve(w http.ResponseWriter, r *http.Request) {
	coin, ok := s.coin(w, r)
	if !ok {
		return
	}

	n := s.points
	if raw := r.URL.Query().Get("points"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 || v > maxCurvePoints {
			s.writeError(w, http.StatusBadRequest, "points must be between 2 and "+strconv.Itoa(maxCurvePoints))
			return
		}
		n = v
	}

	c := s.curve.WithParams(coin.CurveType, coin.CurveK, coin.CurveSlope, coin.BasePrice)
	points := c.Sample(coin.TotalSupply, n)
	labels := make([]curveLabel, len(points))
	for i, p := range points {
		labels[i] = curveLabel{
			Supply:    curve.FormatSupply(p.SupplyMillions()),
			Price:     curve.FormatPrice(p.Price),
			MarketCap: curve.FormatMarketCap(p.MarketCap),
		}
	}

	resp := curveResponse{
		CoinID:          coin.ID,
		Type:            c.Type,
		LivePrice:       coin.Price,
		Progress:        curve.FormatProgress(coin.Progress),
		TargetMarketCap: c.TargetMarketCap,
		Points:          points,
		Labels:          labels,
	}
	if grad, ok := curve.GraduationPoint(points, c.TargetMarketCap); ok {
		resp.Graduation = &grad
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKing(w http.ResponseWriter, r *http.Request) {
	king, ok := s.store.Snapshot().KingOfTheHill()
	if !ok {
		s.writeError(w, http.StatusNotFound, "No coins yet")
		return
	}
	s.writeJSON(w, http.StatusOK, king)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	status := map[string]interface{}{
		"version":  snap.Version,
		"coins":    len(snap.Coins),
		"trades":   len(snap.Trades),
		"comments": len(snap.Comments),
	}
	if s.state != nil {
		status["connection"] = s.state().String()
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) coin(w http.ResponseWriter, r *http.Request) (memepump.Coin, bool) {
	coin, ok := s.store.Snapshot().Coin(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, http.StatusNotFound, "Coin not found")
	}
	return coin, ok
}

// writeJSON encodes v before any header is written, so an unencodable value
// becomes a 500 instead of an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode view response", zap.Error(err))
		body, status = []byte(`{"error":"failed to encode response"}`), http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write view response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
