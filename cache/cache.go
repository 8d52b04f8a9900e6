package cache

import (
	"errors"
	"time"
)

// DataType 缓存值类型
type DataType int

const (
	None DataType = iota
	Value
	List
	Queue
	Set
	Map
)

func (t DataType) String() string {
	switch t {
	case Value:
		return "value"
	case List:
		return "list"
	case Queue:
		return "queue"
	case Set:
		return "set"
	case Map:
		return "map"
	default:
		return "none"
	}
}

var (
	// ErrWrongType 键当前的类型与请求的视图不兼容
	ErrWrongType = errors.New("cache: operation against a key holding the wrong kind of value")
	// ErrNotInteger 值不是整数，无法自增
	ErrNotInteger = errors.New("cache: value is not an integer")
	// ErrIndexOutOfRange 列表下标越界
	ErrIndexOutOfRange = errors.New("cache: index out of range")
	// ErrClosed 仓库已关闭
	ErrClosed = errors.New("cache: repository closed")
)

// Repository 缓存仓库，会话与票据存储都建立在它之上
type Repository interface {
	HasKey(key string) bool
	Delete(keys ...string) int
	Type(key string) DataType
	Keys() []string

	// Expire 设置相对过期时间，ttl <= 0 时立即过期
	Expire(key string, ttl time.Duration) bool
	ExpireAt(key string, at time.Time) bool
	Persist(key string) bool
	// GetExpire 剩余存活时间，键不存在或永久有效时返回 false
	GetExpire(key string) (time.Duration, bool)

	OpsValue(key string) (*ValueOps, error)
	OpsList(key string) (*ListOps, error)
	OpsQueue(key string) (*QueueOps, error)
	OpsSet(key string) (*SetOps, error)
	OpsMap(key string) (*MapOps, error)
}
