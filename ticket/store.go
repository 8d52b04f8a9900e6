package ticket

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kochabx/sso/cache"
	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/errors"
	"github.com/kochabx/sso/log"
)

var ErrExpired = errors.Sentinel("ticket: already expired")

// Config 票据配置
type Config struct {
	// TTL 票据等待校验的有效期
	TTL time.Duration `json:"ttl" mapstructure:"ttl" default:"10s"`
	// IndexTTL 会话到票据索引的保留时长，每次写入时刷新
	IndexTTL time.Duration `json:"index_ttl" mapstructure:"index_ttl" default:"24h"`
}

// Store 按租户隔离的票据存储
type Store struct {
	cfg    Config
	repo   cache.Repository
	serial *Serial
	logger *log.Logger
}

// Option 票据存储选项
type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSerial 注入序号计数器，多个存储可共享同一个序号
func WithSerial(serial *Serial) Option {
	return func(s *Store) { s.serial = serial }
}

func NewStore(repo cache.Repository, cfg Config, opts ...Option) (*Store, error) {
	if err := tag.ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	s := &Store{cfg: cfg, repo: repo, serial: NewSerial(), logger: log.G}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = &log.Logger{Logger: s.logger.Named("ticket")}
	return s, nil
}

func pendingKey(tenant, id string) string {
	return tenant + ":cas:ticket:" + id
}

func indexKey(tenant, sid string) string {
	return tenant + ":cas:session:" + sid
}

// Issue 为应用签发绑定到会话的新票据并保存
func (s *Store) Issue(tenant, application, token, sid, subject string) (*Ticket, error) {
	t := &Ticket{
		ID:          NewID(s.serial),
		Application: application,
		Session:     token,
		SessionID:   sid,
		Subject:     subject,
		ExpiresAt:   time.Now().Add(s.cfg.TTL),
	}
	if err := s.Save(tenant, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Save 保存待校验票据，并在会话索引中登记
func (s *Store) Save(tenant string, t *Ticket) error {
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	value, err := s.repo.OpsValue(pendingKey(tenant, t.ID))
	if err != nil {
		return fmt.Errorf("open ticket value: %w", err)
	}
	value.Set(string(data), ttl)
	return s.index(tenant, t.SessionID, t.ID, data)
}

// Bind 将已消费的票据重新登记到会话索引，供注销时通知
func (s *Store) Bind(tenant string, t *Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}
	return s.index(tenant, t.SessionID, t.ID, data)
}

func (s *Store) index(tenant, sid, id string, data []byte) error {
	key := indexKey(tenant, sid)
	idx, err := s.repo.OpsMap(key)
	if err != nil {
		return fmt.Errorf("open session index: %w", err)
	}
	idx.Put(id, string(data))
	s.repo.Expire(key, s.cfg.IndexTTL)
	return nil
}

// Remove 原子地取出待校验票据，同一票据只有一个调用方能取到
func (s *Store) Remove(tenant, id string) (*Ticket, bool) {
	value, err := s.repo.OpsValue(pendingKey(tenant, id))
	if err != nil {
		return nil, false
	}
	data, ok := value.GetAndDelete()
	if !ok {
		return nil, false
	}
	var t Ticket
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		s.logger.Warn().Err(err).Str("ticket", id).Msg("drop undecodable ticket")
		return nil, false
	}
	return &t, true
}

// GetTicketBySession 会话关联的全部票据，含已消费的，按 ID 排序
func (s *Store) GetTicketBySession(tenant, sid string) []*Ticket {
	idx, err := s.repo.OpsMap(indexKey(tenant, sid))
	if err != nil {
		return nil
	}
	entries := idx.Entries()
	tickets := make([]*Ticket, 0, len(entries))
	for id, data := range entries {
		var t Ticket
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			s.logger.Warn().Err(err).Str("ticket", id).Msg("skip undecodable ticket")
			continue
		}
		tickets = append(tickets, &t)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets
}

// RemoveTicketBySession 清除会话的票据索引及其尚未消费的票据
func (s *Store) RemoveTicketBySession(tenant, sid string) int {
	tickets := s.GetTicketBySession(tenant, sid)
	keys := make([]string, 0, len(tickets))
	for _, t := range tickets {
		keys = append(keys, pendingKey(tenant, t.ID))
	}
	s.repo.Delete(keys...)
	s.repo.Delete(indexKey(tenant, sid))
	return len(tickets)
}
