// Package dashboard wires the live market view together: it seeds the store
// over REST, restores the local identity and wallet session, keeps the
// streaming connection alive and tears everything down on Close.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"memepump/config"
	"memepump/internal/account"
	"memepump/internal/curve"
	"memepump/internal/localstore"
	"memepump/internal/market/memorystore"
	"memepump/internal/market/snapshot"
	"memepump/internal/market/stream"
	"memepump/internal/market/viewapi"
	"memepump/internal/wallet"
	"memepump/pkg/memepump"
	"memepump/pkg/storage/postgres"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ApproveFunc is asked before a local keypair connects or signs.
type ApproveFunc func(ctx context.Context, action string) bool

type Dashboard struct {
	cfg    *config.Config
	logger *zap.Logger

	Store   *memorystore.MarketStore
	API     *memepump.RESTClient
	Account *account.Manager
	Wallet  *wallet.Adapter
	Curve   curve.Curve

	kv         *localstore.Badger
	loader     *snapshot.Loader
	reconciler *snapshot.Reconciler
	ws         *memepump.WSClient
	view       *viewapi.Server
	archive    *postgres.Client

	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

// New builds every component without touching the network. The local store
// is opened here so identity and wallet commands work without Start.
func New(cfg *config.Config, logger *zap.Logger, approve ApproveFunc) (*Dashboard, error) {
	kv, err := localstore.Open(localstore.Options{Path: cfg.Storage.Path, InMemory: cfg.Storage.InMemory}, logger)
	if err != nil {
		return nil, err
	}

	env, err := walletEnv(cfg.Wallet, approve)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	api := memepump.NewRESTClient(cfg.API.BaseURL, cfg.API.Timeout)
	store := memorystore.NewMarketStore(logger.Named("store"))

	d := &Dashboard{
		cfg:     cfg,
		logger:  logger,
		Store:   store,
		API:     api,
		Account: account.NewManager(api, kv, logger.Named("account")),
		Wallet:  wallet.NewAdapter(env, kv, logger.Named("wallet")),
		Curve:   curveFromConfig(cfg.Curve),
		kv:      kv,
	}
	d.loader = &snapshot.Loader{
		Source:  api,
		Store:   store,
		Logger:  logger.Named("sync"),
		Timeout: cfg.Sync.BootstrapTimeout,
	}
	d.reconciler = &snapshot.Reconciler{Loader: d.loader, Interval: cfg.Sync.ReconcileInterval}
	d.ws = memepump.NewWSClient(cfg.WS.URL, memepump.WSConfig{
		ReconnectDelay:   cfg.WS.ReconnectDelay,
		HandshakeTimeout: cfg.WS.HandshakeTimeout,
		PingInterval:     cfg.WS.PingInterval,
	}, logger.Named("ws"))
	return d, nil
}

func walletEnv(cfg config.WalletConfig, approve ApproveFunc) (*wallet.Injected, error) {
	env := &wallet.Injected{}
	if cfg.SolanaKeypair != "" {
		kp, err := wallet.LoadKeypair(cfg.SolanaKeypair)
		if err != nil {
			return nil, fmt.Errorf("load solana keypair: %w", err)
		}
		kp.Approve = approve
		env.SetSolana(kp)
	}
	if cfg.EVMRPCURL != "" {
		env.SetEthereum(wallet.NewRPCProvider(cfg.EVMRPCURL, cfg.Timeout))
	}
	return env, nil
}

func curveFromConfig(cfg config.CurveConfig) curve.Curve {
	return curve.New(cfg.Type, cfg.K, cfg.Slope, cfg.BasePrice, cfg.MaxSupply, cfg.TargetMarketCap)
}

// Start runs the startup sequence once. Only an archive that is enabled but
// unreachable fails it; a failed bootstrap is logged and the stream fills in.
func (d *Dashboard) Start(ctx context.Context) error {
	var err error
	d.startOnce.Do(func() { err = d.start(ctx) })
	return err
}

func (d *Dashboard) start(ctx context.Context) error {
	var archive stream.TradeArchive
	if d.cfg.Archive.Enabled {
		client, err := postgres.InitializeAndMigrateTradeRecord(d.cfg.Archive, true)
		if err != nil {
			return fmt.Errorf("failed to connect to archive: %w", err)
		}
		d.archive = client
		archive = client
	}

	if err := d.loader.Bootstrap(ctx); err != nil {
		d.logger.Warn("initial sync incomplete, waiting for stream snapshot", zap.Error(err))
	}

	d.Account.Restore()
	d.Wallet.RestoreSession()

	d.ws.SetMessageHandler(stream.MakeMessageHandler(d.logger.Named("stream"), d.Store, archive))
	d.ws.SetStateHandler(d.notice)
	d.ws.Start()

	d.reconciler.Start(ctx)

	if d.cfg.View.Listen != "" {
		d.view = viewapi.NewServer(d.Store, viewapi.Options{
			Addr:   d.cfg.View.Listen,
			Curve:  d.Curve,
			Points: d.cfg.Curve.Points,
			State:  d.ws.State,
		}, d.logger.Named("view"))
		d.view.Start()
	}
	return nil
}

// notice runs under the connection lock; it only logs.
func (d *Dashboard) notice(s memepump.ConnState) {
	switch s {
	case memepump.StateOpen:
		d.logger.Info("live updates connected")
	case memepump.StateClosed, memepump.StateErrored:
		d.logger.Warn("live updates interrupted, reconnecting",
			zap.Stringer("state", s), zap.Duration("in", d.cfg.WS.ReconnectDelay))
	}
}

// ConnState reports the streaming connection state.
func (d *Dashboard) ConnState() memepump.ConnState {
	return d.ws.State()
}

// Sync seeds the store over REST without connecting the stream.
func (d *Dashboard) Sync(ctx context.Context) error {
	return d.loader.Bootstrap(ctx)
}

// LoadComments fetches one coin's comment history into the store.
func (d *Dashboard) LoadComments(ctx context.Context, coinID string) error {
	return d.loader.LoadComments(ctx, coinID)
}

// Close stops the connection and any pending reconnect, then releases the
// view server, archive and local store. It is safe to call more than once.
func (d *Dashboard) Close() error {
	d.closeOnce.Do(func() {
		d.ws.Stop()
		d.reconciler.Stop()

		var err error
		if d.view != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = multierr.Append(err, d.view.Shutdown(ctx))
			cancel()
		}
		if d.archive != nil {
			err = multierr.Append(err, d.archive.Close())
		}
		err = multierr.Append(err, d.kv.Close())
		d.closeErr = err
	})
	return d.closeErr
}
