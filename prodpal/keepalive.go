package prodpal

import (
	"context"
	"github.com/lmittmann/tint"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// keepAlivePinger periodically sends a GET request to the bot's own
// external URL. Free hosting tiers idle services out after a window of
// inactivity, and the self-ping keeps the service warm.
type keepAlivePinger struct {
	config         *KeepAliveConfig
	logger         *slog.Logger
	httpClient     *http.Client
	active         atomic.Bool
	lastStatusCode atomic.Int64
	lastPingAt     atomic.Int64
}

func newKeepAlivePinger(
	config *KeepAliveConfig,
	httpClient *http.Client,
) *keepAlivePinger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &keepAlivePinger{
		config:     config,
		httpClient: httpClient,
	}
}

// run pings the configured URL on the configured interval until the
// context is canceled. If no URL is configured, the pinger is inactive.
func (k *keepAlivePinger) run(ctx context.Context) {
	if k.config.URL == "" {
		k.logger.Info("no keep-alive URL configured, pinger disabled")
		return
	}
	k.active.Store(true)
	defer k.active.Store(false)

	k.logger.Info(
		"keep-alive pinger starting",
		"url", k.config.URL,
		"interval", k.config.Interval,
	)

	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.logger.Info("keep-alive pinger stopping")
			return
		case <-ticker.C:
			k.ping(ctx)
		}
	}
}

func (k *keepAlivePinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.config.URL, nil)
	if err != nil {
		k.logger.ErrorContext(ctx, "error creating keep-alive request", tint.Err(err))
		return
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		k.logger.WarnContext(ctx, "keep-alive ping failed", tint.Err(err))
		return
	}
	_ = resp.Body.Close()
	k.lastStatusCode.Store(int64(resp.StatusCode))
	k.lastPingAt.Store(time.Now().UnixMilli())
	k.logger.InfoContext(
		ctx,
		"keep-alive ping sent",
		"status_code", resp.StatusCode,
	)
}
