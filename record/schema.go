package record

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// Schema 表结构值对象，只保留列名，不保留类型、默认值等信息
// 列名顺序与数据库返回的顺序一致
type Schema struct {
	Table  string
	Fields []string
}

// HasField 判断列名是否在表结构中
func (s *Schema) HasField(name string) bool {
	for _, field := range s.Fields {
		if field == name {
			return true
		}
	}
	return false
}

// SchemaProbe 表结构探测接口
// 目标数据库通过互不兼容的语句暴露表结构元数据，因此探测策略可替换
type SchemaProbe interface {
	TableSchema(ctx context.Context, db *sql.DB, table string) (*Schema, error)
}

// describeProbe MySQL 风格探测，列名来自 DESCRIBE 结果的 Field 列
type describeProbe struct{}

func (p *describeProbe) TableSchema(ctx context.Context, db *sql.DB, table string) (*Schema, error) {
	return probeByQuery(ctx, db, table, fmt.Sprintf("DESCRIBE %s", table), "Field")
}

// pragmaProbe SQLite 风格探测，列名来自 PRAGMA table_info 结果的 name 列
type pragmaProbe struct{}

func (p *pragmaProbe) TableSchema(ctx context.Context, db *sql.DB, table string) (*Schema, error) {
	return probeByQuery(ctx, db, table, fmt.Sprintf("PRAGMA table_info(%s)", table), "name")
}

func probeByQuery(ctx context.Context, db *sql.DB, table string, query string, nameColumn string) (*Schema, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []string
	for rows.Next() {
		row, err := scanRowToMap(rows)
		if err != nil {
			return nil, err
		}
		name, ok := row[nameColumn].(string)
		if !ok {
			if raw, isBytes := row[nameColumn].([]byte); isBytes {
				name, ok = string(raw), true
			}
		}
		if !ok {
			return nil, errors.Errorf("unexpected %s column in schema row", nameColumn)
		}
		fields = append(fields, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.Errorf("no columns found for table %s", table)
	}

	return &Schema{Table: table, Fields: fields}, nil
}

// probeChain 依次尝试多个探测策略，全部失败时返回最后一个错误
type probeChain []SchemaProbe

func (c probeChain) TableSchema(ctx context.Context, db *sql.DB, table string) (*Schema, error) {
	var lastErr error
	for _, probe := range c {
		schema, err := probe.TableSchema(ctx, db, table)
		if err == nil {
			return schema, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// StaticProbe 返回固定表结构，不访问数据库
type StaticProbe struct {
	Schema *Schema
}

func (p *StaticProbe) TableSchema(ctx context.Context, db *sql.DB, table string) (*Schema, error) {
	if p.Schema == nil || p.Schema.Table != table {
		return nil, errors.Errorf("no static schema for table %s", table)
	}
	return p.Schema, nil
}

var defaultProbe SchemaProbe = probeChain{&describeProbe{}, &pragmaProbe{}}
