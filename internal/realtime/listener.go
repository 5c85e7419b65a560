package realtime

import (
	"context"
	"time"

	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"

	"github.com/lib/pq"
)

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = 30 * time.Second
	pingInterval         = 90 * time.Second
)

// Listener bridges Postgres NOTIFY into the Hub. Transactions write outbox
// rows and fire pg_notify together, so everything published here was durably
// committed first.
type Listener struct {
	connString string
	hub        *Hub
}

// NewListener creates a Listener for the queue events channel.
func NewListener(connString string, hub *Hub) *Listener {
	return &Listener{connString: connString, hub: hub}
}

// Run listens until ctx is cancelled. Connection problems are logged and
// retried by the underlying pq listener.
func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.connString, minReconnectInterval, maxReconnectInterval,
		func(_ pq.ListenerEventType, err error) {
			if err != nil {
				utils.LogError(err, "queue events listener connection event")
			}
		})
	defer listener.Close()

	if err := listener.Listen(repositories.NotifyChannel); err != nil {
		return err
	}
	utils.LogInfo("queue events listener started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notification := <-listener.Notify:
			// A nil notification signals a reconnect; clients resync from
			// the REST endpoints on their next poll.
			if notification != nil {
				l.hub.Publish(notification.Extra)
			}
		case <-time.After(pingInterval):
			if err := listener.Ping(); err != nil {
				utils.LogError(err, "queue events listener ping failed")
			}
		}
	}
}
