// repository/notification/redisNotifier.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listMax = 100
	listTTL = 30 * 24 * time.Hour
)

type redisNotifier struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) Notifier { return &redisNotifier{rdb: rdb} }

func inboxKey(userID int64) string   { return fmt.Sprintf("bienestar:inbox:%d", userID) }
func channelKey(userID int64) string { return fmt.Sprintf("bienestar:notify:%d", userID) }

// Notify prepends the notification to the user's capped inbox list and
// publishes it on the user's channel for anything listening live.
func (r *redisNotifier) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, inboxKey(n.UserID), b)
	pipe.LTrim(ctx, inboxKey(n.UserID), 0, listMax-1)
	pipe.Expire(ctx, inboxKey(n.UserID), listTTL)
	pipe.Publish(ctx, channelKey(n.UserID), b)
	_, err = pipe.Exec(ctx)
	return err
}

// Inbox reads back the most recent notifications for a user.
func Inbox(ctx context.Context, rdb *redis.Client, userID int64, limit int64) ([]Notification, error) {
	if limit <= 0 || limit > listMax {
		limit = listMax
	}
	raw, err := rdb.LRange(ctx, inboxKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(raw))
	for _, s := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
