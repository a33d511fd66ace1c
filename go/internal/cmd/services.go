package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/clients/courier_api_client"
	"github.com/mcdev12/courier/go/internal/config"
	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/dashboard"
	"github.com/mcdev12/courier/go/internal/delivery/feed"
	"github.com/mcdev12/courier/go/internal/delivery/gateway"
	"github.com/mcdev12/courier/go/internal/delivery/notify"
	"github.com/mcdev12/courier/go/internal/delivery/push"
	"github.com/mcdev12/courier/go/internal/delivery/pushsource"
	"github.com/mcdev12/courier/go/internal/delivery/timers"
	"github.com/mcdev12/courier/go/internal/models"
)

type Services struct {
	Timers     *timers.Registry
	Notices    *notify.Dispatcher
	Feed       *feed.Reconciler
	Relay      *push.Relay
	PushSource delivery.PushSource
	Dashboard  *dashboard.Dashboard
	Gateway    *gateway.Service
}

func setupServices(cfg *config.Config) (*Services, error) {
	// API client → timers → feed/relay → dashboard → gateway
	clock := clockwork.NewRealClock()
	api := courier_api_client.NewCourierApiClient(cfg.API.BaseURL, cfg.API.Token)

	registry := timers.NewRegistry(clock)
	notices := notify.NewDispatcher(api, cfg.Feed.ActionTimeout)

	reconciler := feed.NewReconciler(api, registry, notices, clock, feed.Config{
		PollInterval:  cfg.Feed.PollInterval,
		OfferSeconds:  cfg.Feed.OfferSeconds,
		ActionTimeout: cfg.Feed.ActionTimeout,
	})

	source, err := setupPushSource(cfg)
	if err != nil {
		return nil, err
	}

	// The gateway is built last; pushes only flow once Run starts.
	var gw *gateway.Service
	opts := []push.Option{
		push.WithActionTimeout(cfg.Feed.ActionTimeout),
		push.WithAttentionCue(delivery.AttentionCueFunc(func(o models.Order) { gw.Alert(o) })),
		push.WithDecisionFunc(func(order models.Order, status models.OrderStatus, err error) {
			if err != nil {
				return
			}
			log.Info().Str("order_id", order.Key()).Str("status", string(status)).Msg("pushed order settled")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Feed.ActionTimeout)
			defer cancel()
			reconciler.Refresh(ctx)
		}),
	}
	if ack, ok := source.(delivery.PushAcknowledger); ok {
		opts = append(opts, push.WithAcknowledger(ack))
	}
	relay := push.NewRelay(api, registry, notices, opts...)
	if source != nil {
		source.OnPush(relay.OnOrderPush)
	}
	reconciler.SetPinned(relay.Handles)

	dash := dashboard.New(reconciler, relay, registry, clock)

	gatewayConfig := gateway.DefaultConfig(cfg.Driver.ID)
	gatewayConfig.AllowedOrigins = cfg.Gateway.AllowedOrigins
	gw = gateway.NewService(gatewayConfig, dash)

	registry.Subscribe(gw.OnTimerEvent)
	notices.AddSink(gw.OnNotice)

	return &Services{
		Timers:     registry,
		Notices:    notices,
		Feed:       reconciler,
		Relay:      relay,
		PushSource: source,
		Dashboard:  dash,
		Gateway:    gw,
	}, nil
}

func setupPushSource(cfg *config.Config) (delivery.PushSource, error) {
	switch cfg.Push.Transport {
	case config.TransportWebSocket:
		wsConfig := pushsource.DefaultWebSocketConfig(cfg.Push.SocketURL, cfg.API.Token)
		wsConfig.ReconnectWait = cfg.Push.ReconnectWait
		return pushsource.NewWebSocketSource(wsConfig, nil), nil
	case config.TransportNATS:
		natsConfig := pushsource.DefaultNATSConfig(cfg.Push.NATSURL, cfg.Driver.ID)
		natsConfig.ReconnectWait = cfg.Push.ReconnectWait
		source, err := pushsource.NewNATSSource(natsConfig)
		if err != nil {
			return nil, fmt.Errorf("setup nats push source: %w", err)
		}
		return source, nil
	default:
		log.Warn().Msg("push transport disabled - only polled orders will be offered")
		return nil, nil
	}
}
