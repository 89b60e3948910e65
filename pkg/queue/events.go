package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publisher 发布端的最小接口，mq.Client 与 watermill Publisher 都可以适配.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// PublishAttachmentStored 发布 av.attachment.stored.
func PublishAttachmentStored(pub Publisher, payload AttachmentStoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAttachmentStored, payload, opts...)
}

// PublishAttachmentDestroyed 发布 av.attachment.destroyed.
func PublishAttachmentDestroyed(pub Publisher, payload AttachmentDestroyedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAttachmentDestroyed, payload, opts...)
}

// PublishAttachmentRestored 发布 av.attachment.restored.
func PublishAttachmentRestored(pub Publisher, payload AttachmentRestoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicAttachmentRestored, payload, opts...)
}

func publish[T any](pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// ParseAttachmentStored 解析 av.attachment.stored.
func ParseAttachmentStored(msg *message.Message) (Message[AttachmentStoredPayload], error) {
	return ParseWatermillMessage[AttachmentStoredPayload](msg)
}

// ParseAttachmentDestroyed 解析 av.attachment.destroyed.
func ParseAttachmentDestroyed(msg *message.Message) (Message[AttachmentDestroyedPayload], error) {
	return ParseWatermillMessage[AttachmentDestroyedPayload](msg)
}
