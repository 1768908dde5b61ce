package record

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

var testSchema = &Schema{
	Table:  "orders",
	Fields: []string{"id", "user_id", "product_id", "amount"},
}

func TestBuildSelect(t *testing.T) {
	Convey("测试查询语句生成", t, func() {
		Convey("不带条件的全表查询", func() {
			query, args, err := buildSelect(testSchema, "id", nil, nil, "", 0)
			So(err, ShouldBeNil)
			So(query, ShouldEqual, "SELECT orders.id, orders.user_id, orders.product_id, orders.amount FROM orders")
			So(args, ShouldBeEmpty)
		})

		Convey("条件按字段名排序，占位符与参数一一对应", func() {
			query, args, err := buildSelect(testSchema, "id", nil, map[string]any{
				"user_id": 7,
				"amount":  3,
			}, "", 0)
			So(err, ShouldBeNil)
			So(query, ShouldEndWith, " WHERE amount = ? AND user_id = ?")
			So(args, ShouldResemble, []any{3, 7})
		})

		Convey("排序和限制拼接在末尾", func() {
			query, _, err := buildSelect(testSchema, "id", nil, nil, "amount DESC", 10)
			So(err, ShouldBeNil)
			So(query, ShouldEndWith, " ORDER BY amount DESC LIMIT 10")
		})

		Convey("连接表使用位置别名", func() {
			joins := []joinClause{
				{table: "users", localKey: "user_id", foreignKey: "id", joinType: "INNER", fields: []string{"name"}},
				{table: "products", localKey: "product_id", foreignKey: "id", joinType: "LEFT", fields: []string{"title"}},
			}
			query, _, err := buildSelect(testSchema, "id", joins, nil, "", 0)
			So(err, ShouldBeNil)
			So(query, ShouldContainSubstring, "j0.name AS j0_name")
			So(query, ShouldContainSubstring, "j1.title AS j1_title")
			So(query, ShouldContainSubstring, " INNER JOIN users AS j0 ON orders.user_id = j0.id")
			So(query, ShouldContainSubstring, " LEFT JOIN products AS j1 ON orders.product_id = j1.id")
		})

		Convey("未指定连接字段时取连接表全部列", func() {
			joins := []joinClause{
				{table: "users", localKey: "user_id", foreignKey: "id", joinType: "INNER"},
			}
			query, _, err := buildSelect(testSchema, "id", joins, nil, "", 0)
			So(err, ShouldBeNil)
			So(query, ShouldContainSubstring, "j0.*")
		})
	})
}

func TestBuildOrderBy(t *testing.T) {
	Convey("测试排序子句校验", t, func() {
		Convey("合法的字段和方向", func() {
			clause, err := buildOrderBy(testSchema, "id", "amount DESC")
			So(err, ShouldBeNil)
			So(clause, ShouldEqual, " ORDER BY amount DESC")

			clause, err = buildOrderBy(testSchema, "id", "user_id")
			So(err, ShouldBeNil)
			So(clause, ShouldEqual, " ORDER BY user_id ASC")
		})

		Convey("空排序生成空子句", func() {
			clause, err := buildOrderBy(testSchema, "id", "")
			So(err, ShouldBeNil)
			So(clause, ShouldEqual, "")
		})

		Convey("未知字段被拒绝", func() {
			_, err := buildOrderBy(testSchema, "id", "password DESC")
			So(errors.Is(err, ErrInvalidOrderBy), ShouldBeTrue)
		})

		Convey("非法方向被拒绝", func() {
			_, err := buildOrderBy(testSchema, "id", "amount SIDEWAYS")
			So(errors.Is(err, ErrInvalidOrderBy), ShouldBeTrue)
		})

		Convey("夹带额外语句被拒绝", func() {
			_, err := buildOrderBy(testSchema, "id", "amount DESC; DROP TABLE orders")
			So(errors.Is(err, ErrInvalidOrderBy), ShouldBeTrue)
		})
	})
}

func TestBuildInsert(t *testing.T) {
	Convey("测试插入语句生成", t, func() {
		Convey("列按表结构顺序排列，跳过未赋值的字段", func() {
			query, args, err := buildInsert(testSchema, "id", map[string]any{
				"amount":  3,
				"user_id": 7,
			})
			So(err, ShouldBeNil)
			So(query, ShouldEqual, "INSERT INTO orders (user_id, amount) VALUES (?, ?)")
			So(args, ShouldResemble, []any{7, 3})
		})

		Convey("主键列即使有值也不会出现在列清单中", func() {
			query, args, err := buildInsert(testSchema, "id", map[string]any{
				"id":     100,
				"amount": 3,
			})
			So(err, ShouldBeNil)
			So(query, ShouldEqual, "INSERT INTO orders (amount) VALUES (?)")
			So(args, ShouldResemble, []any{3})
		})

		Convey("没有任何可写字段时拒绝生成空列清单", func() {
			_, _, err := buildInsert(testSchema, "id", map[string]any{})
			So(errors.Is(err, ErrNothingToSave), ShouldBeTrue)

			_, _, err = buildInsert(testSchema, "id", map[string]any{"id": 100})
			So(errors.Is(err, ErrNothingToSave), ShouldBeTrue)
		})
	})
}

func TestBuildUpdate(t *testing.T) {
	Convey("测试更新语句生成", t, func() {
		query, args := buildUpdate(testSchema, "id", map[string]any{
			"id":     5,
			"amount": 9,
		})
		So(query, ShouldEqual, "UPDATE orders SET amount = ? WHERE id = ?")
		So(args, ShouldResemble, []any{9, 5})
	})
}

func TestBuildDelete(t *testing.T) {
	Convey("测试删除语句生成", t, func() {
		Convey("按主键删除", func() {
			query, args := buildDelete("orders", "id", 5)
			So(query, ShouldEqual, "DELETE FROM orders WHERE id = ?")
			So(args, ShouldResemble, []any{5})
		})

		Convey("按条件删除，条件字段排序", func() {
			query, args := buildDeleteWhere("orders", map[string]any{
				"user_id": 7,
				"amount":  3,
			})
			So(query, ShouldEqual, "DELETE FROM orders WHERE amount = ? AND user_id = ?")
			So(args, ShouldResemble, []any{3, 7})
		})
	})
}

func TestNormalizeJoinType(t *testing.T) {
	Convey("测试连接类型归一化", t, func() {
		So(normalizeJoinType("left"), ShouldEqual, "LEFT")
		So(normalizeJoinType("RIGHT"), ShouldEqual, "RIGHT")
		So(normalizeJoinType("inner"), ShouldEqual, "INNER")
		So(normalizeJoinType(""), ShouldEqual, "INNER")
		So(normalizeJoinType("cross"), ShouldEqual, "INNER")
	})
}
