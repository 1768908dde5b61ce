package record

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Record 绑定到单张表的活动记录
// 字段写入由构造时探测到的表结构门控，持久化状态只有 NEW 和 PERSISTED 两种
//
// 实例不做并发保护，要么单协程使用，要么由调用方保证连接使用纪律
type Record struct {
	db         *DB
	schema     *Schema
	primaryKey string
	values     map[string]any
	persisted  bool
	joins      []joinClause
}

// Table 返回绑定的表名
func (r *Record) Table() string {
	return r.schema.Table
}

// PrimaryKey 返回主键列名
func (r *Record) PrimaryKey() string {
	return r.primaryKey
}

// Fields 返回探测到的列名列表
func (r *Record) Fields() []string {
	return r.schema.Fields
}

// Get 读取字段值，从未写入过的字段返回 nil，读取不做表结构检查
func (r *Record) Get(name string) any {
	return r.values[name]
}

// Set 写入字段值
// 字段名不在表结构和主键之内时静默丢弃，这是刻意的宽容策略：
// 调用方可以把超集负载（比如原始请求体）直接灌进来而无需逐字段过滤
func (r *Record) Set(name string, value any) {
	if !r.schema.HasField(name) && name != r.primaryKey {
		return
	}
	r.values[name] = value
}

// Fill 按 map 批量写入字段，逐项走 Set 的门控逻辑
func (r *Record) Fill(values map[string]any) *Record {
	for name, value := range values {
		r.Set(name, value)
	}
	return r
}

// ToMap 返回字段值的浅拷贝
func (r *Record) ToMap() map[string]any {
	result := make(map[string]any, len(r.values))
	for name, value := range r.values {
		result[name] = value
	}
	return result
}

// Clear 清空字段值、持久化状态和连接链，等价于一个只带表结构的新实例
func (r *Record) Clear() *Record {
	r.values = map[string]any{}
	r.persisted = false
	r.joins = nil
	return r
}

// ID 返回主键值，从未水合或插入成功前为 nil
func (r *Record) ID() any {
	return r.values[r.primaryKey]
}

// IsPersisted 返回记录是否对应存储中的一行
// 水合或插入成功后为 true，之后不再与存储核对（外部并发删除不被感知）
func (r *Record) IsPersisted() bool {
	return r.persisted
}

// hydrate 用查询结果行原样替换字段值并标记为已持久化
// 行中超出表结构的列（比如连接列）保留不过滤，这里刻意比 Set 宽松
func (r *Record) hydrate(row map[string]any) {
	r.values = row
	r.persisted = true
}

// fork 复制一个只共享表结构元数据的空白实例，用于水合查询结果
func (r *Record) fork() *Record {
	return &Record{
		db:         r.db,
		schema:     r.schema,
		primaryKey: r.primaryKey,
		values:     map[string]any{},
	}
}

// FindByID 按主键查询单条记录，未命中返回 (nil, nil) 而不是错误
func (r *Record) FindByID(ctx context.Context, id any) (*Record, error) {
	records, err := r.FindAll(ctx, map[string]any{r.primaryKey: id}, "", 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// FindBy 按单字段等值查询，limit 为 0 表示不限制
func (r *Record) FindBy(ctx context.Context, field string, value any, limit int) ([]*Record, error) {
	return r.FindAll(ctx, map[string]any{field: value}, "", limit)
}

// FindAll 通用查询，conditions 为等值条件，orderBy 形如 "name DESC"
// 每条结果都是只共享表结构的全新记录实例
func (r *Record) FindAll(ctx context.Context, conditions map[string]any, orderBy string, limit int) ([]*Record, error) {
	sqlStr, args, err := buildSelect(r.schema, r.primaryKey, nil, conditions, orderBy, limit)
	if err != nil {
		return nil, err
	}

	r.db.debugSQL(ctx, sqlStr, args)
	rows, err := r.db.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		row, err := scanRowToMap(rows)
		if err != nil {
			return nil, err
		}
		rec := r.fork()
		rec.hydrate(row)
		records = append(records, rec)
	}
	return records, rows.Err()
}

type joinOptions struct {
	joinType string
	fields   []string
}

type JoinOption func(*joinOptions)

// WithJoinType 指定连接类型，支持 INNER/LEFT/RIGHT，大小写不敏感
func WithJoinType(joinType string) JoinOption {
	return func(options *joinOptions) {
		options.joinType = joinType
	}
}

// WithJoinFields 只选择连接表的指定列，缺省为通配全部列
func WithJoinFields(fields ...string) JoinOption {
	return func(options *joinOptions) {
		options.fields = fields
	}
}

// AddJoin 追加一个连接描述，连接条件为 <table>.<localKey> = <alias>.<foreignKey>
// 别名按追加顺序为 j0, j1, ...，返回自身以支持链式调用
func (r *Record) AddJoin(table string, localKey string, foreignKey string, opts ...JoinOption) *Record {
	options := &joinOptions{joinType: "INNER"}
	for _, opt := range opts {
		opt(options)
	}

	fields := options.fields
	if len(fields) == 1 && fields[0] == "*" {
		fields = nil
	}

	r.joins = append(r.joins, joinClause{
		table:      table,
		localKey:   localKey,
		foreignKey: foreignKey,
		joinType:   normalizeJoinType(options.joinType),
		fields:     fields,
	})
	return r
}

// FetchWithJoins 执行连接查询，返回原始行 map 而不是记录实例
// 连接结果的列集合不再对应任何单表结构，只读投影不可回写
// 连接链在执行后被消费清空，避免陈旧的连接列表串到下一次调用
func (r *Record) FetchWithJoins(ctx context.Context, conditions map[string]any) ([]map[string]any, error) {
	sqlStr, args, err := buildSelect(r.schema, r.primaryKey, r.joins, conditions, "", 0)
	if err != nil {
		return nil, err
	}
	r.joins = nil

	r.db.debugSQL(ctx, sqlStr, args)
	rows, err := r.db.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		row, err := scanRowToMap(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Save 新记录执行 INSERT，已持久化记录执行 UPDATE
// 不检查存储中行是否仍然存在，并发外部删除后的 Save 行为由数据库决定
func (r *Record) Save(ctx context.Context) error {
	if r.persisted {
		return r.update(ctx)
	}
	return r.insert(ctx)
}

func (r *Record) insert(ctx context.Context) error {
	sqlStr, args, err := buildInsert(r.schema, r.primaryKey, r.values)
	if err != nil {
		return err
	}

	r.db.debugSQL(ctx, sqlStr, args)
	result, err := r.db.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}

	r.applyInsertID(ctx, result)
	r.persisted = true
	return nil
}

// applyInsertID 用驱动返回的自增值回填主键
// 驱动不支持或失败时记录会带着空主键进入已持久化状态，日志留下线索
func (r *Record) applyInsertID(ctx context.Context, result sql.Result) {
	if _, ok := r.values[r.primaryKey]; ok {
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		if r.db.logger != nil {
			r.db.logger.WarnContext(ctx, "last insert id unavailable",
				"table", r.schema.Table, "error", err)
		}
		return
	}
	r.values[r.primaryKey] = id
}

func (r *Record) update(ctx context.Context) error {
	if _, ok := r.values[r.primaryKey]; !ok {
		return errors.WithMessagef(ErrMissingPrimaryKey, "update on table %s", r.schema.Table)
	}

	sqlStr, args := buildUpdate(r.schema, r.primaryKey, r.values)

	r.db.debugSQL(ctx, sqlStr, args)
	_, err := r.db.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Delete 按主键删除当前记录，成功后回到全新状态（字段清空、未持久化）
// 主键缺失时直接报错，不会发起数据库调用
func (r *Record) Delete(ctx context.Context) error {
	id, ok := r.values[r.primaryKey]
	if !ok {
		return errors.WithMessagef(ErrMissingPrimaryKey, "delete on table %s", r.schema.Table)
	}

	sqlStr, args := buildDelete(r.schema.Table, r.primaryKey, id)

	r.db.debugSQL(ctx, sqlStr, args)
	if _, err := r.db.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}

	r.Clear()
	return nil
}

// DeleteWhere 按条件批量删除并返回影响行数
// 空条件直接报错，不会发起数据库调用，避免意外清空整张表
func (r *Record) DeleteWhere(ctx context.Context, conditions map[string]any) (int64, error) {
	if len(conditions) == 0 {
		return 0, errors.WithMessagef(ErrEmptyCondition, "deleteWhere on table %s", r.schema.Table)
	}

	sqlStr, args := buildDeleteWhere(r.schema.Table, conditions)

	r.db.debugSQL(ctx, sqlStr, args)
	result, err := r.db.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanRowToMap 把当前行扫描成列名到值的 map
func scanRowToMap(rows *sql.Rows) (map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	data := make(map[string]any)
	for i, col := range columns {
		if raw, ok := values[i].([]byte); ok {
			data[col] = string(raw)
			continue
		}
		data[col] = values[i]
	}
	return data, nil
}
