package directory

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/kochabx/sso/errors"
)

// ErrAccountNotFound 账号不存在或已停用
var ErrAccountNotFound = errors.Sentinel("directory: account not found")

// Account 账号信息
type Account struct {
	ID         string `json:"id" mapstructure:"id" gorm:"column:id;primaryKey;size:64" validate:"required"`
	Tenant     string `json:"tenant" mapstructure:"tenant" gorm:"column:tenant_code;primaryKey;size:64" validate:"required"`
	Username   string `json:"username" mapstructure:"username" gorm:"column:username;size:128"`
	Name       string `json:"name" mapstructure:"name" gorm:"column:name;size:128"`
	Email      string `json:"email" mapstructure:"email" gorm:"column:email;size:256"`
	Mobile     string `json:"mobile" mapstructure:"mobile" gorm:"column:mobile;size:32"`
	Admin      bool   `json:"admin" mapstructure:"admin" gorm:"column:admin"`
	Supervisor bool   `json:"supervisor" mapstructure:"supervisor" gorm:"column:supervisor"`
	Enabled    bool   `json:"enabled" mapstructure:"enabled" gorm:"column:enabled"`
}

func (Account) TableName() string {
	return "saas_account"
}

// Directory 按租户和账号 id 查询账号
type Directory interface {
	FindByID(ctx context.Context, tenant, id string) (*Account, error)
}

// Static 内存账号表
type Static struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewStatic(accounts ...Account) *Static {
	s := &Static{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		s.Put(a)
	}
	return s
}

func (s *Static) Put(a Account) {
	s.mu.Lock()
	s.accounts[a.Tenant+"/"+a.ID] = a
	s.mu.Unlock()
}

func (s *Static) FindByID(_ context.Context, tenant, id string) (*Account, error) {
	s.mu.RLock()
	a, ok := s.accounts[tenant+"/"+id]
	s.mu.RUnlock()
	if !ok || !a.Enabled {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

// DB saas_account 表
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Migrate 建表
func (d *DB) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(&Account{})
}

func (d *DB) FindByID(ctx context.Context, tenant, id string) (*Account, error) {
	var a Account
	err := d.db.WithContext(ctx).
		Where("tenant_code = ? AND id = ? AND enabled = ?", tenant, id, true).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Internal("DIRECTORY_QUERY", "find account %s", id).WithCause(err)
	}
	return &a, nil
}
