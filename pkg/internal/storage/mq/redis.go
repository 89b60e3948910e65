package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/attachvault/pkg/configs"
)

// DefaultChannelBufferSize 订阅输出通道缓冲大小.
const DefaultChannelBufferSize = 100

// redisEnvelope Redis 频道上传输的消息体，保留 watermill 的 UUID 与 metadata.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher 基于 Redis PUBLISH 的 Publisher.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber 基于 Redis SUBSCRIBE 的 Subscriber，每次 Subscribe 使用独立的 PubSub 连接.
type RedisSubscriber struct {
	client *redis.Client
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func newRedisClient(cfg configs.MQRedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// redisFactory 创建 Redis Publisher 与 Subscriber，两者各自持有客户端.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	pubClient := newRedisClient(cfg.Redis)
	if err := pubClient.Ping(ctx).Err(); err != nil {
		_ = pubClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	pub := &RedisPublisher{client: pubClient}
	sub := &RedisSubscriber{
		client:  newRedisClient(cfg.Redis),
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return pub, sub, nil
}

func marshalRedisMessage(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisEnvelope{
		UUID:     msg.UUID,
		Metadata: msg.Metadata,
		Payload:  msg.Payload,
	})
}

func unmarshalRedisMessage(data []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	if env.UUID == "" {
		env.UUID = watermill.NewUUID()
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := marshalRedisMessage(msg)
		if err != nil {
			return fmt.Errorf("marshal message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Close 实现 Publisher 接口.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Subscribe 实现 Subscriber 接口，每条消息等待 Ack 或 Nack 后再投递下一条.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		s.consume(ctx, topic, ps.Channel(), out)
	}()

	return out, nil
}

func (s *RedisSubscriber) consume(ctx context.Context, topic string, in <-chan *redis.Message, out chan<- *message.Message) {
	fields := watermill.LogFields{"topic": topic}

	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case raw, ok := <-in:
			if !ok {
				return
			}

			msg, err := unmarshalRedisMessage([]byte(raw.Payload))
			if err != nil {
				s.logger.Error("drop malformed redis message", err, fields)
				continue
			}

			msgCtx, cancel := context.WithCancel(ctx)
			msg.SetContext(msgCtx)

			select {
			case out <- msg:
			case <-s.closeCh:
				cancel()
				return
			case <-ctx.Done():
				cancel()
				return
			}

			select {
			case <-msg.Acked():
			case <-msg.Nacked():
				s.logger.Info("redis message nacked, pub/sub cannot redeliver", fields.Add(watermill.LogFields{"uuid": msg.UUID}))
			case <-s.closeCh:
			case <-ctx.Done():
			}

			cancel()
		}
	}
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	errs := make([]error, 0, len(s.subs)+1)
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	s.mu.Unlock()

	s.wg.Wait()

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
