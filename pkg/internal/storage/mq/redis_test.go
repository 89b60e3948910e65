package mq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
)

// TestRedisMessageKeepsMetadata 经过 Redis 频道后 UUID 与 metadata 不丢失.
func TestRedisMessageKeepsMetadata(t *testing.T) {
	msg := message.NewMessage("01J0000000000000000000000", []byte(`{"attachment_id":7}`))
	msg.Metadata.Set("topic", "av.attachment.stored")
	msg.Metadata.Set("trace_id", "abc")

	data, err := marshalRedisMessage(msg)
	require.NoError(t, err)

	got, err := unmarshalRedisMessage(data)
	require.NoError(t, err)
	assert.Equal(t, msg.UUID, got.UUID)
	assert.Equal(t, "av.attachment.stored", got.Metadata.Get("topic"))
	assert.Equal(t, "abc", got.Metadata.Get("trace_id"))
	assert.JSONEq(t, `{"attachment_id":7}`, string(got.Payload))

	_, err = unmarshalRedisMessage([]byte("not json"))
	assert.Error(t, err)
}

func TestRegisteredMQTypes(t *testing.T) {
	assert.Equal(t,
		[]configs.MQType{configs.MQTypeGoChannel, configs.MQTypeNATS, configs.MQTypeRedis},
		GetRegisteredMQTypes())
}

// 设置 ENABLE_REDIS_TEST=1 和 REDIS_ADDR 启用.
func TestRedisPubSub(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := &configs.MQConfig{Type: configs.MQTypeRedis, Redis: configs.MQRedisConfig{Addr: addr}}

	nop := zerolog.Nop()

	pub, sub, err := redisFactory(ctx, cfg, &zerologAdapter{l: &nop})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}

	defer pub.Close()
	defer sub.Close()

	ch, err := sub.Subscribe(ctx, "attachvault.test")
	require.NoError(t, err)

	msg := message.NewMessage("01J0000000000000000000001", []byte("hello"))
	msg.Metadata.Set("producer", "test")
	require.NoError(t, pub.Publish("attachvault.test", msg))

	select {
	case got := <-ch:
		assert.Equal(t, msg.UUID, got.UUID)
		assert.Equal(t, "test", got.Metadata.Get("producer"))
		assert.Equal(t, "hello", string(got.Payload))
		got.Ack()
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
