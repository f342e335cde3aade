package queue

// 主题命名规范：pv.<域>.<动作>，保持稳定且向后兼容.

const (
	TopicPasteCreated   = "pv.paste.created"   // 普通粘贴或链接写入完成，大文件粘贴进入待上传状态
	TopicPasteCompleted = "pv.paste.completed" // 大文件上传确认完成
	TopicPasteAccessed  = "pv.paste.accessed"  // 一次成功的内容读取
	TopicPasteUpdated   = "pv.paste.updated"   // 元数据被修改
	TopicPasteDeleted   = "pv.paste.deleted"   // 调用方显式删除
	TopicPasteReaped    = "pv.paste.reaped"    // 读取时发现过期或对象缺失而被清理
)

// PasteTopics 全部粘贴主题，events tail 默认订阅.
var PasteTopics = []string{
	TopicPasteCreated, TopicPasteCompleted, TopicPasteAccessed,
	TopicPasteUpdated, TopicPasteDeleted, TopicPasteReaped,
}
