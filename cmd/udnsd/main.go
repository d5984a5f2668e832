package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/config"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "udnsd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLIApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		stop()
		os.Exit(1)
	}
}

func newCLIApp() *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "static authoritative DNS server",
		Version:   version,
		ArgsUsage: "PORT ZONE_FILE",
		Description: "Answers A, SOA, NS, MX and CNAME queries for the domains listed in ZONE_FILE,\n" +
			"over UDP and TCP on PORT. PORT and ZONE_FILE may also come from DNS_PORT and DNS_ZONE_FILE.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "address to listen on (default 127.0.0.1, env DNS_ADDRESS)",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "runtime environment, dev or prod (env DNS_ENV)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (env DNS_LOG_LEVEL)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			queryCommand(),
		},
	}
}

// serve runs the server until the context is cancelled.
func serve(c *cli.Context) error {
	overrides, err := serveOverrides(c.Args().Slice())
	if err != nil {
		return err
	}
	for flag, key := range map[string]string{
		"address":   "address",
		"env":       "env",
		"log-level": "log_level",
	} {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}
	defer log.Sync()
	logger := log.GetLogger()

	logger.Info(map[string]any{
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"address":      cfg.Address,
		"port":         cfg.Port,
		"zone_file":    cfg.ZoneFile,
		"max_inflight": cfg.MaxInflight,
	}, "Starting udnsd")

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error(map[string]any{"error": err}, "Failed to build application")
		return err
	}

	if err := app.Run(c.Context); err != nil {
		logger.Error(map[string]any{"error": err}, "Server failed")
		return err
	}

	logger.Info(nil, "udnsd stopped gracefully")
	return nil
}

// serveOverrides turns the positional PORT and ZONE_FILE arguments into config
// overrides. With no arguments both must come from the environment.
func serveOverrides(args []string) (map[string]any, error) {
	overrides := make(map[string]any)
	switch len(args) {
	case 0:
		return overrides, nil
	case 2:
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", args[0], err)
		}
		overrides["port"] = port
		overrides["zone_file"] = args[1]
		return overrides, nil
	default:
		return nil, fmt.Errorf("expected PORT ZONE_FILE, got %d arguments", len(args))
	}
}
