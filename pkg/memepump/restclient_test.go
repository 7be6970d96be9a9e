package memepump

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newAPI serves a small in-memory backend and counts the requests it sees.
func newAPI(t *testing.T) (*RESTClient, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits.Add(1)
			next.ServeHTTP(w, req)
		})
	})

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/coins", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []Coin{{ID: "c1", Name: "Pepe", Price: 0.00001}})
	}).Methods(http.MethodGet)
	api.HandleFunc("/coins", func(w http.ResponseWriter, req *http.Request) {
		var body CreateCoinRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, Coin{ID: "c2", Name: body.Name, Symbol: body.Symbol, Price: 0.00001})
	}).Methods(http.MethodPost)
	api.HandleFunc("/trades", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []Trade{{ID: "t1", CoinID: "c1", Type: SideBuy, Amount: 1}})
	}).Methods(http.MethodGet)
	api.HandleFunc("/trades", func(w http.ResponseWriter, req *http.Request) {
		var body TradeRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.CoinID == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Coin not found"})
			return
		}
		writeJSON(w, http.StatusCreated, Trade{ID: "t2", CoinID: body.CoinID, Type: body.Type, Amount: body.Amount})
	}).Methods(http.MethodPost)
	api.HandleFunc("/comments", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, []Comment{{ID: "m1", CoinID: req.URL.Query().Get("coinId")}})
	}).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, User{ID: mux.Vars(req)["id"], Username: "alice"})
	}).Methods(http.MethodGet)
	api.HandleFunc("/wallet/verify", func(w http.ResponseWriter, req *http.Request) {
		addr := req.URL.Query().Get("address")
		writeJSON(w, http.StatusOK, WalletChallenge{Message: "Sign to verify " + addr, Address: addr})
	}).Methods(http.MethodGet)
	api.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewRESTClient(srv.URL+"/api/v1/", 2*time.Second), &hits
}

func TestRESTClientReads(t *testing.T) {
	c, _ := newAPI(t)
	ctx := context.Background()

	coins, err := c.GetCoins(ctx)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "Pepe", coins[0].Name)

	trades, err := c.GetTrades(ctx)
	require.NoError(t, err)
	assert.Equal(t, SideBuy, trades[0].Type)

	comments, err := c.GetComments(ctx, "c 1")
	require.NoError(t, err)
	assert.Equal(t, "c 1", comments[0].CoinID)

	u, err := c.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	ch, err := c.GetWalletChallenge(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", ch.Address)
}

func TestRESTClientWrites(t *testing.T) {
	c, _ := newAPI(t)
	ctx := context.Background()

	coin, err := c.CreateCoin(ctx, CreateCoinRequest{
		Name: "Doge", Symbol: "DOGE", Description: "wow", Image: "🐕", Creator: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "DOGE", coin.Symbol)

	trade, err := c.ExecuteTrade(ctx, TradeRequest{CoinID: "c1", Type: SideSell, Amount: 2, Wallet: "w"})
	require.NoError(t, err)
	assert.Equal(t, SideSell, trade.Type)
}

func TestRESTClientAPIError(t *testing.T) {
	c, _ := newAPI(t)

	_, err := c.ExecuteTrade(context.Background(), TradeRequest{CoinID: "missing", Type: SideBuy, Amount: 1, Wallet: "w"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Coin not found", apiErr.Message)

	err = c.do(context.Background(), http.MethodGet, "/broken", nil, nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestRESTClientValidatesBeforeNetwork(t *testing.T) {
	c, hits := newAPI(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		call  func() error
		field string
	}{
		{"coin name", func() error {
			_, err := c.CreateCoin(ctx, CreateCoinRequest{Symbol: "X", Description: "d", Image: "i", Creator: "c"})
			return err
		}, "name"},
		{"trade side", func() error {
			_, err := c.ExecuteTrade(ctx, TradeRequest{CoinID: "c1", Type: "hold", Amount: 1, Wallet: "w"})
			return err
		}, "type"},
		{"trade amount", func() error {
			_, err := c.ExecuteTrade(ctx, TradeRequest{CoinID: "c1", Type: SideBuy, Amount: -1, Wallet: "w"})
			return err
		}, "amount"},
		{"trade wallet", func() error {
			_, err := c.ExecuteTrade(ctx, TradeRequest{CoinID: "c1", Type: SideBuy, Amount: 1})
			return err
		}, "wallet"},
		{"blank comment", func() error {
			_, err := c.PostComment(ctx, CommentRequest{CoinID: "c1", UserID: "u", Username: "a", Content: "   "})
			return err
		}, "content"},
		{"register pin", func() error {
			_, err := c.CreateUser(ctx, CreateUserRequest{Username: "a"})
			return err
		}, "pin"},
		{"update pin", func() error {
			_, err := c.UpdateUser(ctx, "u1", UpdateUserRequest{Bio: "x"})
			return err
		}, "pin"},
		{"comments coin", func() error {
			_, err := c.GetComments(ctx, "")
			return err
		}, "coinId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
	assert.Zero(t, hits.Load())
}
