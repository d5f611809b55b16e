package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base 所有实体共享的主键与时间戳
type Base struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b Base) GetID() string {
	return b.ID
}

// Fields 实体允许按名称过滤、排序、更新的列
type Fields map[string]struct{}

func NewFields(columns ...string) Fields {
	f := make(Fields, len(columns)+3)
	for _, c := range append([]string{"id", "created_at", "updated_at"}, columns...) {
		f[c] = struct{}{}
	}
	return f
}

func (f Fields) Has(column string) bool {
	_, ok := f[column]
	return ok
}

// Patchable 主键与创建时间不可通过 patch 修改
func (f Fields) Patchable(column string) bool {
	return column != "id" && column != "created_at" && f.Has(column)
}
