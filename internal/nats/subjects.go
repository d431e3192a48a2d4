package nats

// NATS Subject 常量定义
const (
	// SubjectLogicUpstream Access -> Mahjong 上行消息
	SubjectLogicUpstream = "mahjong.logic.upstream"

	// SubjectAccessDownstreamPrefix Mahjong -> Access 下行消息前缀
	// 完整格式: mahjong.access.{node_id}.downstream
	SubjectAccessDownstreamPrefix = "mahjong.access."
	SubjectAccessDownstreamSuffix = ".downstream"

	// QueueGroupLogic 队列组名称，多个实例分摊上行消息
	QueueGroupLogic = "mahjong-logic"
)

// BuildAccessDownstreamSubject 构建 Access 节点下行 Subject
func BuildAccessDownstreamSubject(nodeID string) string {
	return SubjectAccessDownstreamPrefix + nodeID + SubjectAccessDownstreamSuffix
}
