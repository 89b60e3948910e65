package queue

// 主题命名规范：av.<域>.<动作>，保持稳定且向后兼容.

const (
	TopicAttachmentStored    = "av.attachment.stored"    // 文件已写入且元数据记录已提交
	TopicAttachmentDestroyed = "av.attachment.destroyed" // 元数据记录已删除（含物理删除结果）
	TopicAttachmentRestored  = "av.attachment.restored"  // 软删除的记录被恢复

	// TopicAttachmentAll 订阅全部附件事件的通配.
	TopicAttachmentAll = "av.attachment.*"
)

// Topics 返回全部具体主题.
func Topics() []string {
	return []string{TopicAttachmentStored, TopicAttachmentDestroyed, TopicAttachmentRestored}
}
