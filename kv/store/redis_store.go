package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStoreOptions struct {
	// host:port 地址
	Endpoint string `cfg:"endpoint"`

	// 集群节点的 host:port 地址列表
	Endpoints []string `cfg:"endpoints"`

	// KeyPrefix 所有键的前缀
	KeyPrefix string `cfg:"keyPrefix"`

	DefaultTTL time.Duration `cfg:"defaultTTL"`

	Username string `cfg:"username"`
	Password string `cfg:"password"`

	// 连接到服务器后选择的数据库，集群模式下忽略
	DB int `cfg:"db"`

	// 放弃前的最大重试次数，-1 禁用重试
	MaxRetries   int           `cfg:"maxRetries" def:"3"`
	DialTimeout  time.Duration `cfg:"dialTimeout" def:"5s"`
	ReadTimeout  time.Duration `cfg:"readTimeout" def:"3s"`
	WriteTimeout time.Duration `cfg:"writeTimeout" def:"3s"`
	PoolSize     int           `cfg:"poolSize" def:"10"`
}

type RedisStore struct {
	client     redis.UniversalClient
	keyPrefix  string
	defaultTTL time.Duration
}

func NewRedisStoreWithOptions(options *RedisStoreOptions) (*RedisStore, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	var client redis.UniversalClient
	if options.Endpoint != "" {
		client = redis.NewClient(&redis.Options{
			Addr:         options.Endpoint,
			Username:     options.Username,
			Password:     options.Password,
			DB:           options.DB,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	} else if len(options.Endpoints) > 0 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        options.Endpoints,
			Username:     options.Username,
			Password:     options.Password,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	} else {
		return nil, errors.New("Endpoint or Endpoints must be set")
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithMessage(err, "redis.client.Ping failed")
	}

	return &RedisStore{
		client:     client,
		keyPrefix:  options.KeyPrefix,
		defaultTTL: options.DefaultTTL,
	}, nil
}

func (s *RedisStore) expiration(options *setOptions) time.Duration {
	if options.Expiration > 0 {
		return options.Expiration
	}
	return s.defaultTTL
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, opts ...setOption) error {
	options := newSetOptions(opts)

	if options.IfNotExist {
		ok, err := s.client.SetNX(ctx, s.keyPrefix+key, value, s.expiration(options)).Result()
		if err != nil {
			return errors.Wrap(err, "redis.SetNX failed")
		}
		if !ok {
			return ErrConditionFailed
		}
		return nil
	}

	if err := s.client.Set(ctx, s.keyPrefix+key, value, s.expiration(options)).Err(); err != nil {
		return errors.Wrap(err, "redis.Set failed")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "redis.Get failed")
	}
	return value, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "redis.Del failed")
	}
	return nil
}

// BatchSet 使用 pipeline 一次发送所有写入
func (s *RedisStore) BatchSet(ctx context.Context, keys []string, vals [][]byte, opts ...setOption) ([]error, error) {
	if len(keys) != len(vals) {
		return nil, errors.New("keys and values length mismatch")
	}
	options := newSetOptions(opts)
	expiration := s.expiration(options)

	pipe := s.client.Pipeline()
	setCmds := make([]*redis.StatusCmd, len(keys))
	nxCmds := make([]*redis.BoolCmd, len(keys))
	for i, key := range keys {
		if options.IfNotExist {
			nxCmds[i] = pipe.SetNX(ctx, s.keyPrefix+key, vals[i], expiration)
		} else {
			setCmds[i] = pipe.Set(ctx, s.keyPrefix+key, vals[i], expiration)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "redis pipeline exec failed")
	}

	errs := make([]error, len(keys))
	for i := range keys {
		if options.IfNotExist {
			if !nxCmds[i].Val() {
				errs[i] = ErrConditionFailed
			}
			continue
		}
		errs[i] = setCmds[i].Err()
	}
	return errs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
