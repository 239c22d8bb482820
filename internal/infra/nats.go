// README: NATS connection for quote events.
package infra

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NewNATS dials url and logs connection state changes.
func NewNATS(url string, log *zap.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("farecast"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats closed")
		}),
	)
}
