package proto

import "encoding/json"

// ============== 客户端信封 (WebSocket) ==============

// 入站请求类型
const (
	TypeJoin      = "JOIN"
	TypePlayTile  = "PLAY_TILE"
	TypeStartGame = "START_GAME"
	TypePing      = "PING"
)

// 出站回复类型，房间事件类型见 room 包
const (
	TypeOK    = "OK"
	TypeError = "ERROR"
	TypePong  = "PONG"
)

// Envelope 客户端消息信封，入站和出站共用
type Envelope struct {
	T     string          `json:"t"`
	ReqID string          `json:"reqId,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

// NewEnvelope 构建信封，payload 为 nil 时不带 p 字段
func NewEnvelope(t string, reqID string, payload any) (Envelope, error) {
	env := Envelope{T: t, ReqID: reqID}
	if payload == nil {
		return env, nil
	}
	switch raw := payload.(type) {
	case json.RawMessage:
		env.P = raw
		return env, nil
	case []byte:
		env.P = raw
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	env.P = data
	return env, nil
}

// Tile 线上的牌
type Tile struct {
	Suit  int8 `json:"suit"`
	Value int8 `json:"value"`
}

// JoinRequest 加入房间
// 身份来源依次为 token、playerId；都为空时由服务端分配
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	PlayerID string `json:"playerId,omitempty"`
	Token    string `json:"token,omitempty"`
}

// PlayTileRequest 出牌
type PlayTileRequest struct {
	RoomID string `json:"roomId"`
	Tile   Tile   `json:"tile"`
	Index  int    `json:"index"`
}

// StartGameRequest 请求开局
type StartGameRequest struct {
	RoomID string `json:"roomId"`
}

// JoinAck 加入成功的回复
type JoinAck struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
	Seat     int    `json:"seat"`
	Rejoined bool   `json:"rejoined"`
}

// ErrorPayload 错误回复
type ErrorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ============== 上行消息 (Access -> Logic) ==============

// UpstreamMessage 上行消息封装
type UpstreamMessage struct {
	AccessNodeId string          `json:"AccessNodeId"`
	ConnId       int64           `json:"ConnId"`
	Payload      UpstreamPayload `json:"Payload"`
}

// UpstreamPayload 上行消息载荷
type UpstreamPayload struct {
	GameRequest   *GameRequest   `json:"GameRequest,omitempty"`
	PlayerOffline *PlayerOffline `json:"PlayerOffline,omitempty"`
}

// GameRequest 转发的客户端请求
type GameRequest struct {
	PlayerId string   `json:"PlayerId,omitempty"` // Access 节点已绑定的身份，JOIN 前为空
	Request  Envelope `json:"Request"`
}

// PlayerOffline 连接断开事件
type PlayerOffline struct {
	PlayerId string `json:"PlayerId"`
	ConnId   int64  `json:"ConnId"`
}

// ============== 下行消息 (Logic -> Access) ==============

// DownstreamMessage 下行消息封装
type DownstreamMessage struct {
	PlayerId string            `json:"PlayerId"`
	ConnId   int64             `json:"ConnId"`
	Payload  DownstreamPayload `json:"Payload"`
}

// DownstreamPayload 下行消息载荷
type DownstreamPayload struct {
	GamePush *GamePush `json:"GamePush,omitempty"`
	Reply    *Reply    `json:"Reply,omitempty"`
}

// GamePush 房间事件推送
type GamePush struct {
	Event  string          `json:"Event"`
	RoomId string          `json:"RoomId"`
	Data   json.RawMessage `json:"Data"`
}

// Reply 对某个请求的回复 (OK / ERROR)
// PlayerId 为请求处理后连接绑定的身份
type Reply struct {
	PlayerId string   `json:"PlayerId,omitempty"`
	Response Envelope `json:"Response"`
}
