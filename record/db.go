package record

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/hatlonely/webx/log/logger"
)

type DBOptions struct {
	Driver   string `cfg:"driver" def:"mysql" validate:"omitempty,oneof=mysql sqlite3"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// DB 数据库句柄，所有记录对象共享同一个连接池
// 不做并发控制，并发纪律由调用方保证
type DB struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewDBWithOptions(options *DBOptions) (*DB, error) {
	dsn := options.DSN
	if dsn == "" {
		switch options.Driver {
		case "mysql":
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
				options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
		case "sqlite3":
			dsn = options.Database
		default:
			return nil, errors.Errorf("unsupported driver: %s", options.Driver)
		}
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sql.Open failed")
	}

	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "db.Ping failed")
	}

	return &DB{db: db, driver: options.Driver}, nil
}

// NewDB 直接包装已有连接，测试或调用方自管连接时使用
func NewDB(db *sql.DB, driver string) *DB {
	return &DB{db: db, driver: driver}
}

// SetLogger 设置语句级别的调试日志
func (d *DB) SetLogger(l logger.Logger) {
	d.logger = l
}

func (d *DB) Driver() string {
	return d.driver
}

// Exec 在共享连接上直接执行语句，建表等 DDL 场景使用
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.debugSQL(ctx, query, args)
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DB) Close() error {
	return d.db.Close()
}

type recordOptions struct {
	primaryKey string
	probe      SchemaProbe
	schema     *Schema
}

type RecordOption func(*recordOptions)

// WithPrimaryKey 指定主键列名，默认为 id
func WithPrimaryKey(name string) RecordOption {
	return func(options *recordOptions) {
		options.primaryKey = name
	}
}

// WithProbe 替换表结构探测策略
func WithProbe(probe SchemaProbe) RecordOption {
	return func(options *recordOptions) {
		options.probe = probe
	}
}

// WithSchema 跳过探测，直接使用固定表结构，便于无数据库测试
func WithSchema(schema *Schema) RecordOption {
	return func(options *recordOptions) {
		options.schema = schema
	}
}

// Record 构造绑定到指定表的记录对象，表结构在此处探测且仅探测一次
func (d *DB) Record(ctx context.Context, table string, opts ...RecordOption) (*Record, error) {
	options := &recordOptions{primaryKey: "id"}
	for _, opt := range opts {
		opt(options)
	}

	schema := options.schema
	if schema == nil {
		probe := options.probe
		if probe == nil {
			probe = defaultProbe
		}
		var err error
		schema, err = probe.TableSchema(ctx, d.db, table)
		if err != nil {
			return nil, errors.WithMessagef(ErrSchemaUnavailable, "table %s: %v", table, err)
		}
	}

	return &Record{
		db:         d,
		schema:     schema,
		primaryKey: options.primaryKey,
		values:     map[string]any{},
	}, nil
}

func (d *DB) debugSQL(ctx context.Context, sqlStr string, args []any) {
	if d.logger != nil {
		d.logger.DebugContext(ctx, "exec sql", "sql", sqlStr, "args", args)
	}
}
