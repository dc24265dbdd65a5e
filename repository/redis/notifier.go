package redis

import (
	"context"
	"encoding/json"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/planner/usecase"
)

// ChannelPrefix is followed by the user id in invalidation channel names.
const ChannelPrefix = "tasks:invalidate:"

type changeNotifier struct {
	client *redislib.Client
}

// NewChangeNotifier publishes task list invalidations on Redis pub/sub.
func NewChangeNotifier(client *redislib.Client) usecase.ChangeNotifier {
	return &changeNotifier{client: client}
}

func (n *changeNotifier) Notify(ctx context.Context, change usecase.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, ChannelPrefix+change.UserID, payload).Err()
}
