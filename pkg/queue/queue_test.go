package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/queue"
)

// TestPublishAttachmentStored 通过 gochannel 发布并解析信封.
func TestPublishAttachmentStored(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicAttachmentStored)
	require.NoError(t, err)

	payload := queue.AttachmentStoredPayload{
		Attachment: queue.AttachmentRef{ID: 1, Storage: "local", Filename: "a.txt", Size: 13},
		Field:      "customers.avatar",
	}
	require.NoError(t, queue.PublishAttachmentStored(ps, payload, queue.WithProducer("attachvault"), queue.WithTraceID("t-1")))

	select {
	case msg := <-ch:
		env, err := queue.ParseAttachmentStored(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, queue.TopicAttachmentStored, env.Header.Topic)
		assert.Equal(t, "attachvault", env.Header.Producer)
		assert.Equal(t, queue.PayloadVersionV1, env.Header.Version)
		assert.Equal(t, payload, env.Payload)
		assert.Equal(t, "t-1", msg.Metadata.Get("trace_id"))
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestEncodeDecode(t *testing.T) {
	in := queue.Message[queue.AttachmentDestroyedPayload]{
		Header:  queue.NewEventHeader(queue.TopicAttachmentDestroyed),
		Payload: queue.AttachmentDestroyedPayload{Attachment: queue.AttachmentRef{ID: 9}, Outcome: "physical_skipped", Retained: true},
	}

	b, err := queue.Encode(in)
	require.NoError(t, err)

	out, err := queue.Decode[queue.AttachmentDestroyedPayload](b)
	require.NoError(t, err)
	assert.Equal(t, in.Payload, out.Payload)
	assert.True(t, in.Header.OccurredAt.Equal(out.Header.OccurredAt))
}
