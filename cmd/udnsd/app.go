package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/config"
	"github.com/udnsd/udns/internal/dns/gateways/transport"
	"github.com/udnsd/udns/internal/dns/gateways/wire"
	"github.com/udnsd/udns/internal/dns/repos/matchcache"
	"github.com/udnsd/udns/internal/dns/repos/zone"
	"github.com/udnsd/udns/internal/dns/services/responder"
)

// Application holds all the components of the DNS server
type Application struct {
	config     *config.AppConfig
	logger     log.Logger
	table      *zone.Table
	cache      *matchcache.Cache
	responder  *responder.Responder
	transports []transport.ServerTransport
}

// buildApplication loads the zone file and wires the components together.
// Nothing is bound until Run.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (*Application, error) {
	table, err := zone.Load(cfg.ZoneFile, cfg.TTL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info(map[string]any{
		"zone_file": cfg.ZoneFile,
		"zones":     table.Len(),
		"ttl":       cfg.TTL,
	}, "Zone table loaded")

	cache, err := matchcache.New(table, cfg.MatchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create match cache: %w", err)
	}

	codec := wire.NewMsgCodec(logger)
	svc := responder.NewResponder(responder.ResponderOptions{
		Codec:   codec,
		Logger:  logger,
		Matcher: cache,
	})

	opts := transport.Options{
		MaxInflight: cfg.MaxInflight,
		ReadTimeout: cfg.TCPReadTimeout,
	}
	var transports []transport.ServerTransport
	for _, tt := range transport.GetSupportedTransports() {
		tr, err := transport.NewTransport(tt, cfg.ListenAddr(), opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s transport: %w", tt, err)
		}
		transports = append(transports, tr)
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		table:      table,
		cache:      cache,
		responder:  svc,
		transports: transports,
	}, nil
}

// Run starts every transport and blocks until ctx is cancelled, then stops
// them concurrently, giving in-flight requests the configured grace period.
// If any transport fails to bind, the ones already started are stopped and
// the bind error is returned.
func (app *Application) Run(ctx context.Context) error {
	for i, tr := range app.transports {
		if err := tr.Start(ctx, app.responder); err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
			defer cancel()
			stopErr := app.stop(stopCtx, app.transports[:i])
			return errors.Join(fmt.Errorf("failed to start transport: %w", err), stopErr)
		}
	}

	addrs := make([]string, 0, len(app.transports))
	for _, tr := range app.transports {
		addrs = append(addrs, tr.Address())
	}
	app.logger.Info(map[string]any{
		"addresses": addrs,
		"zones":     app.table.Domains(),
	}, "DNS server started")

	<-ctx.Done()

	app.logger.Info(map[string]any{
		"grace":        app.config.ShutdownTimeout.String(),
		"cached_names": app.cache.Len(),
	}, "Shutdown initiated")

	stopCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.stop(stopCtx, app.transports); err != nil {
		app.logger.Warn(map[string]any{"error": err}, "Shutdown did not complete cleanly")
		return err
	}

	app.logger.Info(nil, "Graceful shutdown completed")
	return nil
}

func (app *Application) stop(ctx context.Context, transports []transport.ServerTransport) error {
	var g errgroup.Group
	for _, tr := range transports {
		g.Go(func() error {
			return tr.Stop(ctx)
		})
	}
	return g.Wait()
}
