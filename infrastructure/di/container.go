package di

import (
	"omnichannel/application/ports"
	"omnichannel/infrastructure/config"
	ws "omnichannel/interfaces/websocket"
	"omnichannel/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	ClientRepo      ports.ClientRepository
	UploadIssuer    ports.UploadLinkIssuer
	LogHub          *ws.Hub
	LogStreamServer *ws.Server
	Metrics         *observability.Metrics
}

// Shutdown releases long-lived resources owned by the container.
func (c *Container) Shutdown() {
	if c.LogHub != nil {
		c.LogHub.Stop()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
