package broadcast

import (
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"github.com/pusher/pusher-http-go/v5"
)

// RelayConfig carries the managed broadcast service credentials.
// Any missing field leaves the relay unconfigured.
type RelayConfig struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
}

// Configured reports whether all credentials are present.
func (c RelayConfig) Configured() bool {
	return c.AppID != "" && c.Key != "" && c.Secret != "" && c.Cluster != ""
}

// RelayGateway publishes events to a room-derived channel on an external
// broadcast service. Transports subscribe on their own; the gateway tracks
// nothing. When the relay is unconfigured or unreachable, Publish logs and
// resolves as a no-op: history and room state stay correct without live
// delivery.
type RelayGateway struct {
	log    *slog.Logger
	client *pusher.Client
}

func NewRelayGateway(log *slog.Logger, cfg RelayConfig) *RelayGateway {
	gateway := &RelayGateway{log: log}
	if !cfg.Configured() {
		log.Warn("Relay credentials missing, broadcast runs as a no-op")
		return gateway
	}
	gateway.client = &pusher.Client{
		AppID:   cfg.AppID,
		Key:     cfg.Key,
		Secret:  cfg.Secret,
		Cluster: cfg.Cluster,
		Secure:  true,
	}
	return gateway
}

func (g *RelayGateway) Publish(room string, kind contract.EventKind, payload any) {
	if g.client == nil {
		g.log.Warn("Relay not configured, skipping event", "event", kind)
		return
	}
	channel := ChannelName(domain.NormalizeRoom(room))
	if err := g.client.Trigger(channel, string(kind), payload); err != nil {
		g.log.Error("Relay publish failed", "channel", channel, "event", kind, "error", err)
	}
}
