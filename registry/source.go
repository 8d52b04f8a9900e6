package registry

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Source 应用数据来源
type Source interface {
	Load(ctx context.Context) ([]Application, error)
}

// StaticSource 来自配置文件的应用列表
type StaticSource []Application

func (s StaticSource) Load(context.Context) ([]Application, error) {
	return append([]Application(nil), s...), nil
}

// DBSource 从 saas_application 表读取应用
type DBSource struct {
	db     *gorm.DB
	tenant string
}

// NewDBSource tenant 非空时只加载该租户的应用
func NewDBSource(db *gorm.DB, tenant string) *DBSource {
	return &DBSource{db: db, tenant: tenant}
}

// Migrate 建表
func (s *DBSource) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&applicationRow{})
}

func (s *DBSource) Load(ctx context.Context) ([]Application, error) {
	var rows []applicationRow
	q := s.db.WithContext(ctx).Order("code")
	if s.tenant != "" {
		q = q.Where("tenant_code = ?", s.tenant)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	apps := make([]Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.Application)
	}
	return apps, nil
}

// applicationRow 表结构，在应用字段之外带租户列
type applicationRow struct {
	Application `gorm:"embedded"`
	TenantCode  string `gorm:"column:tenant_code;size:64;index"`
}

func (applicationRow) TableName() string {
	return "saas_application"
}
