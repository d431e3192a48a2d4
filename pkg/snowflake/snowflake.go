package snowflake

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	// 起始时间戳 (2025-01-01 00:00:00 UTC)
	epoch int64 = 1735689600000

	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = -1 ^ (-1 << nodeBits)
	maxSequence = -1 ^ (-1 << sequenceBits)

	nodeShift      = sequenceBits
	timestampShift = nodeBits + sequenceBits
)

// ID 雪花ID
type ID int64

// String 转换为十进制字符串
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Int64 转换为 int64
func (id ID) Int64() int64 {
	return int64(id)
}

// Node 雪花ID生成器节点
// 用于生成连接 ID 与玩家 ID
type Node struct {
	mu       sync.Mutex
	nodeID   int64
	sequence int64
	lastTime int64
	now      func() int64
}

// NewNode 创建雪花ID生成器
func NewNode(nodeID int64) (*Node, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake node id must be between 0 and %d, got %d", maxNodeID, nodeID)
	}
	return &Node{
		nodeID: nodeID,
		now:    func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Generate 生成雪花ID
func (n *Node) Generate() ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if now < n.lastTime {
		// 时钟回拨时沿用上一个时间戳
		now = n.lastTime
	}

	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & maxSequence
		if n.sequence == 0 {
			// 序号用尽，等待下一毫秒
			for now <= n.lastTime {
				now = n.now()
			}
		}
	} else {
		n.sequence = 0
	}

	n.lastTime = now

	return ID(((now - epoch) << timestampShift) |
		(n.nodeID << nodeShift) |
		n.sequence)
}

// NodeOf 解析 ID 所属节点
func NodeOf(id ID) int64 {
	return (int64(id) >> nodeShift) & maxNodeID
}
