package connection

import (
	"sync"
)

// Manager 管理本机所有 websocket 连接
type Manager struct {
	connections map[int64]*Connection
	mu          sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[int64]*Connection),
	}
}

func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID()] = conn
}

func (m *Manager) Remove(connID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, connID)
}

func (m *Manager) Get(connID int64) *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[connID]
}

// SendTo 向指定连接发送数据
func (m *Manager) SendTo(connID int64, data []byte) error {
	conn := m.Get(connID)
	if conn == nil {
		return ErrConnectionNotFound
	}
	return conn.Send(data)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// CloseAll 关闭所有连接（停机时使用）
func (m *Manager) CloseAll() {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
