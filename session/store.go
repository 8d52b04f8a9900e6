package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/sso/cache"
	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/core/util/id"
	"github.com/kochabx/sso/log"
)

// Store 会话存储，会话是否存活只取决于仓库中对应的键
type Store struct {
	cfg    Config
	repo   cache.Repository
	parser *jwt.Parser
	logger *log.Logger
}

// Option 会话存储选项
type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(repo cache.Repository, cfg Config, opts ...Option) (*Store, error) {
	if err := tag.ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}
	s := &Store{
		cfg:    cfg,
		repo:   repo,
		logger: log.G,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{cfg.signingMethod().Alg()})),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = &log.Logger{Logger: s.logger.Named("session")}
	return s, nil
}

func tokenKey(tenant, account, sid string) string {
	return tenant + ":security:session:token:" + account + ":" + sid
}

func endpointKey(tenant, account, endpoint string) string {
	return tenant + ":security:session:endpoint:" + account + ":" + endpoint
}

// Issue 签发并保存会话
func (s *Store) Issue(req IssueRequest) (*Session, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New(),
			Subject:   req.AccountID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.MaxAge)),
		},
		Tenant:   req.Tenant,
		Username: req.Username,
		Endpoint: req.Endpoint,
		Timeout:  s.cfg.Timeout.Milliseconds(),
		Source:   req.Source,
	}

	token, err := jwt.NewWithClaims(s.cfg.signingMethod(), claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.Save(token, s.cfg.Limit); err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims}, nil
}

// Save 记录会话为存活；limit > 0 时同一账户同一终端超出上限的最早会话被踢出
func (s *Store) Save(token string, limit int) error {
	c, err := s.Parse(token)
	if err != nil {
		return err
	}

	list, err := s.repo.OpsList(endpointKey(c.Tenant, c.Subject, c.Endpoint))
	if err != nil {
		return fmt.Errorf("open session list: %w", err)
	}
	if limit > 0 && list.Size() >= limit {
		for _, sid := range list.Values() {
			if !s.repo.HasKey(tokenKey(c.Tenant, c.Subject, sid)) {
				list.Remove(0, sid)
			}
		}
		for list.Size() >= limit {
			sid, ok := list.RemoveFirst()
			if !ok {
				break
			}
			s.repo.Delete(tokenKey(c.Tenant, c.Subject, sid))
			s.logger.Info().
				Str("tenant", c.Tenant).
				Str("account", c.Subject).
				Str("session", sid).
				Msg("session evicted by concurrent limit")
		}
	}

	value, err := s.repo.OpsValue(tokenKey(c.Tenant, c.Subject, c.ID))
	if err != nil {
		return fmt.Errorf("open session value: %w", err)
	}
	value.Set(token, c.IdleTimeout(time.Now()))
	list.Add(c.ID)
	if c.ExpiresAt != nil {
		s.repo.ExpireAt(endpointKey(c.Tenant, c.Subject, c.Endpoint), c.ExpiresAt.Time)
	}
	return nil
}

// Verify 校验签名、有效期、租户与存活状态，通过后顺延空闲超时
func (s *Store) Verify(tenant, token string) bool {
	c, err := s.Parse(token)
	if err != nil || c.Tenant != tenant {
		return false
	}

	key := tokenKey(c.Tenant, c.Subject, c.ID)
	value, err := s.repo.OpsValue(key)
	if err != nil {
		return false
	}
	if stored, ok := value.Get(); !ok || stored != token {
		return false
	}
	if c.Source != "" && !s.repo.HasKey(tokenKey(c.Tenant, c.Subject, c.Source)) {
		return false
	}

	s.repo.Expire(key, c.IdleTimeout(time.Now()))
	return true
}

// Invalid 立即使会话失效，令牌自身是否过期不影响
func (s *Store) Invalid(token string) bool {
	c, err := s.Inspect(token)
	if err != nil {
		return false
	}
	if list, err := s.repo.OpsList(endpointKey(c.Tenant, c.Subject, c.Endpoint)); err == nil {
		list.Remove(0, c.ID)
	}
	return s.repo.Delete(tokenKey(c.Tenant, c.Subject, c.ID)) > 0
}

// Clear 使账户在租户下的全部会话失效，返回失效的会话数
func (s *Store) Clear(tenant, account string) int {
	tokenPrefix := tenant + ":security:session:token:" + account + ":"
	endpointPrefix := tenant + ":security:session:endpoint:" + account + ":"

	var sessions, lists []string
	for _, key := range s.repo.Keys() {
		switch {
		case strings.HasPrefix(key, tokenPrefix):
			sessions = append(sessions, key)
		case strings.HasPrefix(key, endpointPrefix):
			lists = append(lists, key)
		}
	}
	s.repo.Delete(lists...)
	n := s.repo.Delete(sessions...)
	if n > 0 {
		s.logger.Info().Str("tenant", tenant).Str("account", account).Int("count", n).Msg("sessions cleared")
	}
	return n
}

// Parse 校验签名与有效期并返回声明
func (s *Store) Parse(token string) (*Claims, error) {
	return s.parse(token)
}

func (s *Store) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	parser := s.parser
	if len(opts) > 0 {
		parser = jwt.NewParser(append(opts, jwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}))...)
	}
	claims := &Claims{}
	t, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Inspect 校验签名但不校验有效期
func (s *Store) Inspect(token string) (*Claims, error) {
	return s.parse(token, jwt.WithoutClaimsValidation())
}

// Decode 只解析不校验，用于读取已失效会话的声明
func (s *Store) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
