package record

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// joinClause 连接描述，别名由在链中的位置决定（j0, j1, ...），不可配置
type joinClause struct {
	table      string
	localKey   string
	foreignKey string
	joinType   string
	fields     []string // 空切片表示通配，选择连接表的全部列
}

// normalizeJoinType 连接类型大小写归一，未知类型回退为 INNER
func normalizeJoinType(joinType string) string {
	switch strings.ToUpper(strings.TrimSpace(joinType)) {
	case "LEFT":
		return "LEFT"
	case "RIGHT":
		return "RIGHT"
	default:
		return "INNER"
	}
}

// sortedKeys 条件 map 的迭代顺序不确定，排序保证生成的 SQL 可复现
func sortedKeys(conditions map[string]any) []string {
	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// buildWhere 等值条件用 AND 连接，值始终通过占位符绑定
func buildWhere(conditions map[string]any) (string, []any) {
	if len(conditions) == 0 {
		return "", nil
	}

	var parts []string
	var args []any
	for _, key := range sortedKeys(conditions) {
		parts = append(parts, fmt.Sprintf("%s = ?", key))
		args = append(args, conditions[key])
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// buildOrderBy 校验排序子句，字段必须在表结构中，方向只允许 ASC/DESC
// 原始设计把调用方文本直接拼进 SQL，这里改为显式拒绝非法输入
func buildOrderBy(schema *Schema, primaryKey string, orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "", nil
	}

	parts := strings.Fields(orderBy)
	if len(parts) > 2 {
		return "", errors.WithMessagef(ErrInvalidOrderBy, "%q", orderBy)
	}

	field := parts[0]
	if !schema.HasField(field) && field != primaryKey {
		return "", errors.WithMessagef(ErrInvalidOrderBy, "unknown field %q", field)
	}

	direction := "ASC"
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case "ASC":
			direction = "ASC"
		case "DESC":
			direction = "DESC"
		default:
			return "", errors.WithMessagef(ErrInvalidOrderBy, "bad direction %q", parts[1])
		}
	}

	return fmt.Sprintf(" ORDER BY %s %s", field, direction), nil
}

// buildSelect 渲染 SELECT 语句
// 主表每列以表名限定，连接表按位置取别名并给选中的列加 <alias>_ 前缀避免冲突
func buildSelect(schema *Schema, primaryKey string, joins []joinClause, conditions map[string]any, orderBy string, limit int) (string, []any, error) {
	var columns []string
	for _, field := range schema.Fields {
		columns = append(columns, fmt.Sprintf("%s.%s", schema.Table, field))
	}

	var joinParts []string
	for i, join := range joins {
		alias := fmt.Sprintf("j%d", i)
		if len(join.fields) == 0 {
			columns = append(columns, fmt.Sprintf("%s.*", alias))
		} else {
			for _, field := range join.fields {
				columns = append(columns, fmt.Sprintf("%s.%s AS %s_%s", alias, field, alias, field))
			}
		}
		joinParts = append(joinParts, fmt.Sprintf(" %s JOIN %s AS %s ON %s.%s = %s.%s",
			join.joinType, join.table, alias, schema.Table, join.localKey, alias, join.foreignKey))
	}

	sqlStr := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), schema.Table)
	sqlStr += strings.Join(joinParts, "")

	whereSQL, args := buildWhere(conditions)
	sqlStr += whereSQL

	orderSQL, err := buildOrderBy(schema, primaryKey, orderBy)
	if err != nil {
		return "", nil, err
	}
	sqlStr += orderSQL

	if limit > 0 {
		sqlStr += fmt.Sprintf(" LIMIT %d", limit)
	}

	return sqlStr, args, nil
}

// buildInsert 渲染 INSERT 语句，主键列永远不出现在列清单中
// 列顺序跟随表结构，保证同样的 values 生成同样的语句
// 没有任何可写字段时直接报错，空列清单是非法 SQL
func buildInsert(schema *Schema, primaryKey string, values map[string]any) (string, []any, error) {
	var columns []string
	var placeholders []string
	var args []any

	for _, field := range schema.Fields {
		if field == primaryKey {
			continue
		}
		value, ok := values[field]
		if !ok {
			continue
		}
		columns = append(columns, field)
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}
	if len(columns) == 0 {
		return "", nil, errors.WithMessagef(ErrNothingToSave, "insert on table %s", schema.Table)
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
	return sqlStr, args, nil
}

// buildUpdate 渲染 UPDATE 语句，SET 为主键之外的全部已存字段，WHERE 为主键等值
func buildUpdate(schema *Schema, primaryKey string, values map[string]any) (string, []any) {
	var setParts []string
	var args []any

	for _, field := range schema.Fields {
		if field == primaryKey {
			continue
		}
		value, ok := values[field]
		if !ok {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = ?", field))
		args = append(args, value)
	}

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		schema.Table,
		strings.Join(setParts, ", "),
		primaryKey)
	args = append(args, values[primaryKey])
	return sqlStr, args
}

// buildDelete 渲染单条 DELETE 语句，WHERE 为主键等值
func buildDelete(table string, primaryKey string, id any) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, primaryKey), []any{id}
}

// buildDeleteWhere 渲染批量 DELETE 语句，条件组合方式与 SELECT 一致
func buildDeleteWhere(table string, conditions map[string]any) (string, []any) {
	whereSQL, args := buildWhere(conditions)
	return fmt.Sprintf("DELETE FROM %s%s", table, whereSQL), args
}
