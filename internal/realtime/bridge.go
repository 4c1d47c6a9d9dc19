package realtime

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge subscribes to a user's change channels and triggers store
// reloads on every notice. It holds no data of its own. Start is
// idempotent: a connected bridge ignores further Start calls.
type Bridge struct {
	client   *redis.Client
	userID   uuid.UUID
	onTasks  func()
	onEvents func()
	logger   *zap.Logger

	mu        sync.Mutex
	connected bool
	sub       *redis.PubSub
	cancel    context.CancelFunc
}

// NewBridge creates a bridge for one user. The callbacks fire on any
// change notice for the matching table; they are expected to issue a
// full reload and swallow their own errors.
func NewBridge(client *redis.Client, userID uuid.UUID, onTasks, onEvents func(), logger *zap.Logger) *Bridge {
	return &Bridge{
		client:   client,
		userID:   userID,
		onTasks:  onTasks,
		onEvents: onEvents,
		logger:   logger,
	}
}

// Start subscribes to the user's tasks and events channels
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())

	sub := b.client.Subscribe(runCtx,
		ChannelName(TableTasks, b.userID),
		ChannelName(TableEvents, b.userID),
	)

	// Force the subscription onto the wire before declaring success
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		if closeErr := sub.Close(); closeErr != nil {
			_ = closeErr
		}
		return err
	}

	b.sub = sub
	b.cancel = cancel
	b.connected = true

	go b.listen(runCtx, sub.Channel())

	b.logger.Info("realtime_bridge_connected",
		zap.String("user_id", b.userID.String()),
	)
	return nil
}

// Stop unsubscribes and tears the bridge down. Safe to call on a
// stopped bridge.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return
	}

	b.cancel()
	if err := b.sub.Close(); err != nil {
		b.logger.Warn("failed_to_close_realtime_subscription", zap.Error(err))
	}
	b.sub = nil
	b.connected = false

	b.logger.Info("realtime_bridge_disconnected",
		zap.String("user_id", b.userID.String()),
	)
}

func (b *Bridge) listen(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.dispatch(msg.Channel)
		}
	}
}

func (b *Bridge) dispatch(channel string) {
	table, _, found := strings.Cut(channel, ":")
	if !found {
		return
	}

	b.logger.Debug("realtime_change_notice",
		zap.String("channel", channel),
		zap.String("user_id", b.userID.String()),
	)

	switch table {
	case TableTasks:
		if b.onTasks != nil {
			b.onTasks()
		}
	case TableEvents:
		if b.onEvents != nil {
			b.onEvents()
		}
	}
}
