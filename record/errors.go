package record

import "github.com/pkg/errors"

var (
	// ErrSchemaUnavailable 两种表结构探测策略全部失败，记录对象不可用
	ErrSchemaUnavailable = errors.New("schema unavailable")
	// ErrMissingPrimaryKey 更新或单条删除时主键值缺失
	ErrMissingPrimaryKey = errors.New("missing primary key")
	// ErrEmptyCondition 批量删除时条件为空，防止误删全表
	ErrEmptyCondition = errors.New("empty condition")
	// ErrInvalidOrderBy 排序字段不在表结构中或方向非法
	ErrInvalidOrderBy = errors.New("invalid order by")
	// ErrNothingToSave 插入时没有任何可写入的字段值
	ErrNothingToSave = errors.New("nothing to save")
)
