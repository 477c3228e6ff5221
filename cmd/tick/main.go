// Binary tick runs the decision engine against a live tick session: requests
// in over stdio or websocket, order batches out on the same channel.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"basketbot-go/internal/config"
	"basketbot-go/internal/engine"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/feed"
	"basketbot-go/internal/metrics"
	"basketbot-go/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfgPath := getEnv("BASKETBOT_CONFIG", "internal/config/config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// Config is optional for stdio sessions; fall back to defaults.
		cfg = config.Default()
	}

	log := util.NewLogger(getEnv("BASKETBOT_LOG_LEVEL", cfg.App.LogLevel))
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("config not loaded, using defaults")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider := getEnv("BASKETBOT_FEED", feed.ProviderStdio)
	session := feed.NewFeed(provider, log, feed.WithURL(os.Getenv("BASKETBOT_FEED_URL")))

	ticks := make(chan exchange.TickRequest, 64)
	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx, ticks)
		close(ticks)
	}()

	eng := engine.New(cfg, nil, log)
	log.Info().Str("provider", provider).Msg("tick engine started")

	for req := range ticks {
		resp := eng.Run(req)
		if err := session.Send(resp); err != nil {
			log.Error().Err(err).Msg("send response")
		}
	}

	if err := <-done; err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("tick session ended")
		os.Exit(1)
	}
	log.Info().Msg("tick engine stopped")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
