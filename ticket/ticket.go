package ticket

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/kochabx/sso/core/util/id"
)

// Prefix 服务票据前缀
const Prefix = "ST-"

const (
	serialMin = 1000
	serialMax = 9999
)

// Ticket 服务票据，绑定租户下的应用与会话，只能被校验一次
type Ticket struct {
	ID          string    `json:"id"`
	Application string    `json:"application"`
	Session     string    `json:"session"`
	SessionID   string    `json:"sessionId"`
	Subject     string    `json:"subject"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired 是否已过期
func (t *Ticket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Serial 票据序号，在 1000..9999 之间循环
type Serial struct {
	v atomic.Int64
}

func NewSerial() *Serial {
	s := &Serial{}
	s.v.Store(serialMin - 1)
	return s
}

// Next 返回下一个序号，并发安全
func (s *Serial) Next() int64 {
	for {
		old := s.v.Load()
		next := old + 1
		if next > serialMax || next < serialMin {
			next = serialMin
		}
		if s.v.CompareAndSwap(old, next) {
			return next
		}
	}
}

// NewID 生成票据 ID：ST-<序号>-<随机串>
func NewID(serial *Serial) string {
	return Prefix + strconv.FormatInt(serial.Next(), 10) + "-" + id.Compact()
}
