package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangeChannel carries the name of the collection that changed.
const ChangeChannel = "booking:changes"

func lastModifiedKey(collection string) string {
	return "last_modified:" + collection
}

// ChangeNotifier is the subscribe/notify side of the store contract:
// every mutation bumps a per-collection last-modified timestamp and
// publishes the collection name, so observers recompute their views from a
// fresh snapshot instead of polling blindly.
type ChangeNotifier struct {
	client *redis.Client
	log    *zap.Logger
}

func NewChangeNotifier(client *redis.Client, log *zap.Logger) *ChangeNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChangeNotifier{client: client, log: log}
}

// NotifyChanged is best-effort: a lost notification only delays observers
// until their next poll of the last-modified timestamp.
func (n *ChangeNotifier) NotifyChanged(ctx context.Context, collection string) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := n.client.Set(ctx, lastModifiedKey(collection), now, 0).Err(); err != nil {
		n.log.Warn("set last-modified", zap.String("collection", collection), zap.Error(err))
	}
	if err := n.client.Publish(ctx, ChangeChannel, collection).Err(); err != nil {
		n.log.Warn("publish change", zap.String("collection", collection), zap.Error(err))
	}
}

// LastModified returns the zero time when the collection was never written.
func (n *ChangeNotifier) LastModified(ctx context.Context, collection string) (time.Time, error) {
	val, err := n.client.Get(ctx, lastModifiedKey(collection)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last-modified: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last-modified: %w", err)
	}
	return t, nil
}
