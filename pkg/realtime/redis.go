package realtime

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "dm:user:"

// Bridge fans DM events out across instances through Redis pub/sub. Publishes
// go to the per-user channel; a pattern subscription feeds everything
// addressed to this instance's users into the local hub. With a single
// instance the hub alone is enough and the bridge stays disabled.
type Bridge struct {
	rdb *redis.Client
	hub *Hub
}

func NewBridge(rdb *redis.Client, hub *Hub) *Bridge {
	return &Bridge{rdb: rdb, hub: hub}
}

// PublishUser sends the payload through Redis; every instance (this one
// included) receives it via the subscription and delivers locally.
func (b *Bridge) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	return b.rdb.Publish(ctx, userChannel(userID), payload).Err()
}

// Run consumes the pattern subscription until ctx is canceled. Malformed
// channel names are logged and skipped.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			uid, err := userFromChannel(msg.Channel)
			if err != nil {
				log.Printf("[realtime] bad channel %q: %v", msg.Channel, err)
				continue
			}
			_ = b.hub.PublishUser(ctx, uid, []byte(msg.Payload))
		}
	}
}

func userChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

func userFromChannel(channel string) (uint, error) {
	raw := strings.TrimPrefix(channel, userChannelPrefix)
	uid, err := strconv.ParseUint(raw, 10, 64)
	return uint(uid), err
}
