package repository

import (
	"Parlor/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage = 1
	MaxLimit    = 50
	defaultSort = "created_at"
)

// ErrAmbiguousFilter Fetch 的过滤条件命中多行
var ErrAmbiguousFilter = errors.New("filter matches more than one record")

// Entity 可由 Record 统一管理的实体
type Entity interface {
	TableName() string
	Fields() model.Fields
	GetID() string
}

// Filter 列名到等值条件的映射，FetchAll 额外识别 page/limit/sort
type Filter map[string]any

// Page 分页参数，越界值会被钳制到合法范围
type Page struct {
	Page  int
	Limit int
}

func NewPage(page, limit any) Page {
	p := cast.ToInt(page)
	if p < 1 {
		p = DefaultPage
	}
	l := cast.ToInt(limit)
	if l < 1 || l > MaxLimit {
		l = MaxLimit
	}
	return Page{Page: p, Limit: l}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Page) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}

// TotalPages 根据总数计算页数
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Record 针对单一实体的通用 CRUD
type Record[T Entity] struct {
	db *gorm.DB
}

func NewRecord[T Entity](db *gorm.DB) *Record[T] {
	return &Record[T]{db: db}
}

// WithTx 返回绑定到事务的副本
func (s *Record[T]) WithTx(tx *gorm.DB) *Record[T] {
	return &Record[T]{db: tx}
}

func (s *Record[T]) Create(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create %s: %w", s.table(), err)
	}
	return nil
}

// CreateAll 批量创建，任意一行失败则整体回滚
func (s *Record[T]) CreateAll(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entities {
			if err := tx.Create(e).Error; err != nil {
				return fmt.Errorf("create %s: %w", s.table(), err)
			}
		}
		return nil
	})
}

// Fetch 按条件取单行，未知字段被丢弃，条件为空时视为未找到
func (s *Record[T]) Fetch(ctx context.Context, filter Filter) (*T, error) {
	clean, _ := s.sanitize(filter)
	if len(clean) == 0 {
		return nil, nil
	}

	var rows []*T
	err := s.db.WithContext(ctx).
		Where(map[string]any(clean)).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.table(), err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, ErrAmbiguousFilter
	}
}

// FetchAll 分页查询，条件中出现未知字段时返回空结果
func (s *Record[T]) FetchAll(ctx context.Context, filter Filter) ([]*T, error) {
	rows := make([]*T, 0)

	clean, known := s.sanitize(criteria(filter))
	if !known {
		return rows, nil
	}

	page := NewPage(filter["page"], filter["limit"])
	q := s.db.WithContext(ctx).Model(new(T))
	if len(clean) > 0 {
		q = q.Where(map[string]any(clean))
	}
	q = s.order(q, cast.ToString(filter["sort"]))

	if err := page.Scope(q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch all %s: %w", s.table(), err)
	}
	return rows, nil
}

// Count 与 FetchAll 相同的过滤规则下的总数
func (s *Record[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	clean, known := s.sanitize(criteria(filter))
	if !known {
		return 0, nil
	}
	var total int64
	q := s.db.WithContext(ctx).Model(new(T))
	if len(clean) > 0 {
		q = q.Where(map[string]any(clean))
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table(), err)
	}
	return total, nil
}

// Update 定位首个匹配行并应用 patch，返回更新后重新读取的副本
// 调用方持有的旧对象不会被修改
func (s *Record[T]) Update(ctx context.Context, filter Filter, patch Filter) (*T, error) {
	clean, _ := s.sanitize(filter)
	if len(clean) == 0 {
		return nil, nil
	}
	changes := s.patch(patch)

	var updated *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target T
		err := s.order(tx.Where(map[string]any(clean)), "").Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if len(changes) > 0 {
			err = tx.Model(new(T)).Where("id = ?", target.GetID()).Updates(map[string]any(changes)).Error
			if err != nil {
				return err
			}
		}

		var fresh T
		if err = tx.Where("id = ?", target.GetID()).Take(&fresh).Error; err != nil {
			return err
		}
		updated = &fresh
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.table(), err)
	}
	return updated, nil
}

// UpdateAll 批量更新，条件为空或含未知字段时不执行
func (s *Record[T]) UpdateAll(ctx context.Context, filter Filter, patch Filter) (int64, error) {
	clean, known := s.sanitize(filter)
	changes := s.patch(patch)
	if len(clean) == 0 || !known || len(changes) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(new(T)).Where(map[string]any(clean)).Updates(map[string]any(changes))
	if result.Error != nil {
		return 0, fmt.Errorf("update all %s: %w", s.table(), result.Error)
	}
	return result.RowsAffected, nil
}

// Delete 按条件删除，条件为空或含未知字段时不执行
func (s *Record[T]) Delete(ctx context.Context, filter Filter) (int64, error) {
	clean, known := s.sanitize(filter)
	if len(clean) == 0 || !known {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where(map[string]any(clean)).Delete(new(T))
	if result.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", s.table(), result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAll 清空整张表
func (s *Record[T]) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T))
	if result.Error != nil {
		return 0, fmt.Errorf("delete all %s: %w", s.table(), result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Record[T]) table() string {
	var zero T
	return zero.TableName()
}

// sanitize 只保留实体声明过的列，第二个返回值表示是否全部已知
func (s *Record[T]) sanitize(filter Filter) (Filter, bool) {
	var zero T
	fields := zero.Fields()
	clean := make(Filter, len(filter))
	known := true
	for k, v := range filter {
		if !fields.Has(k) {
			known = false
			continue
		}
		clean[k] = v
	}
	return clean, known
}

func (s *Record[T]) patch(patch Filter) Filter {
	var zero T
	fields := zero.Fields()
	changes := make(Filter, len(patch))
	for k, v := range patch {
		if fields.Patchable(k) {
			changes[k] = v
		}
	}
	return changes
}

func (s *Record[T]) order(db *gorm.DB, sort string) *gorm.DB {
	var zero T
	desc := strings.HasPrefix(sort, "-")
	column := strings.TrimPrefix(sort, "-")
	if !zero.Fields().Has(column) {
		column, desc = defaultSort, false
	}
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	if column != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return db
}

func criteria(filter Filter) Filter {
	out := make(Filter, len(filter))
	for k, v := range filter {
		switch k {
		case "page", "limit", "sort":
			continue
		}
		out[k] = v
	}
	return out
}
