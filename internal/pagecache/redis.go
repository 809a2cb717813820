package pagecache

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type Redis struct {
	client redis.Cmdable
}

var _ Cache = (*Redis)(nil)

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

type Opts struct {
	fx.In
	LC fx.Lifecycle

	Logger logger.Logger
	Config *config.Config
}

// New returns a Redis cache when REDIS_ADDR is set and Noop otherwise.
func New(opts Opts) Cache {
	if opts.Config.Redis.Addr == "" {
		opts.Logger.Info("Remote page cache disabled")
		return Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Config.Redis.Addr,
		Password: opts.Config.Redis.Password,
		DB:       opts.Config.Redis.DB,
	})

	opts.LC.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return err
				}
				opts.Logger.Info("Connected to redis", "addr", opts.Config.Redis.Addr)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		},
	)

	return NewRedis(client)
}
