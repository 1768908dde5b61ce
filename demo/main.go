package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hatlonely/webx/cfg"
	"github.com/hatlonely/webx/log"
	"github.com/hatlonely/webx/log/logger"
	"github.com/hatlonely/webx/record"
	"github.com/hatlonely/webx/web"
)

type options struct {
	DB     record.DBOptions   `cfg:"db"`
	Server web.ServerOptions  `cfg:"server"`
	Log    logger.SLogOptions `cfg:"log"`
}

func main() {
	opts := &options{
		// :memory: 下每个连接都是独立的库，连接池必须收紧到单连接
		DB:     record.DBOptions{Driver: "sqlite3", Database: ":memory:", MaxConns: 1, MaxIdle: 1},
		Server: web.ServerOptions{Addr: ":8080", EnableMetrics: true, EnableLogging: true},
		Log:    logger.SLogOptions{Level: "debug", Format: "text"},
	}

	// 有配置文件时覆盖默认值
	if _, err := os.Stat("config.json"); err == nil {
		config, err := cfg.NewConfigWithOptions(&cfg.Options{Path: "config.json"})
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			os.Exit(1)
		}
		if err := config.ConvertTo(opts); err != nil {
			fmt.Printf("解析配置失败: %v\n", err)
			os.Exit(1)
		}
	}

	l, err := log.NewLoggerWithOptions(&opts.Log)
	if err != nil {
		fmt.Printf("创建日志失败: %v\n", err)
		os.Exit(1)
	}

	db, err := record.NewDBWithOptions(&opts.DB)
	if err != nil {
		l.Error("连接数据库失败", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetLogger(l.WithGroup("record"))

	if opts.DB.Driver == "sqlite3" && opts.DB.Database == ":memory:" {
		if err := setupDemoTables(context.Background(), db, l); err != nil {
			l.Error("初始化演示表失败", "error", err)
			os.Exit(1)
		}
	}

	server, err := web.NewServerWithOptions(&opts.Server, web.WithLogger(l.WithGroup("web")))
	if err != nil {
		l.Error("创建服务失败", "error", err)
		os.Exit(1)
	}

	registerUserRoutes(db, server.Router())

	l.Info("服务启动", "addr", opts.Server.Addr)
	if err := server.ListenAndServe(); err != nil {
		l.Error("服务退出", "error", err)
		os.Exit(1)
	}
}

func setupDemoTables(ctx context.Context, db *record.DB, l logger.Logger) error {
	statements := []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, email TEXT, status TEXT)",
		"CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT, price REAL)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER, product_id INTEGER, amount INTEGER)",
	}
	for _, statement := range statements {
		if _, err := db.Exec(ctx, statement); err != nil {
			return err
		}
	}
	l.Info("演示表已创建", "tables", []string{"users", "products", "orders"})
	return nil
}

func registerUserRoutes(db *record.DB, router *web.Router) {
	router.POST("/users", func(ctx context.Context, req *web.Request) (any, error) {
		user, err := db.Record(ctx, "users")
		if err != nil {
			return nil, err
		}
		// 请求体超出表结构的键会被静默丢弃，无需逐字段过滤
		if err := user.Fill(req.Body).Save(ctx); err != nil {
			return nil, err
		}
		return user.ToMap(), nil
	})

	router.GET("/users/:id", func(ctx context.Context, req *web.Request) (any, error) {
		user, err := db.Record(ctx, "users")
		if err != nil {
			return nil, err
		}
		found, err := user.FindByID(ctx, req.Params["id"])
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, web.NewError(404, "user %s not found", req.Params["id"])
		}
		return found.ToMap(), nil
	})

	router.PUT("/users/:id", func(ctx context.Context, req *web.Request) (any, error) {
		user, err := db.Record(ctx, "users")
		if err != nil {
			return nil, err
		}
		found, err := user.FindByID(ctx, req.Params["id"])
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, web.NewError(404, "user %s not found", req.Params["id"])
		}
		if err := found.Fill(req.Body).Save(ctx); err != nil {
			return nil, err
		}
		return found.ToMap(), nil
	})

	router.DELETE("/users/:id", func(ctx context.Context, req *web.Request) (any, error) {
		user, err := db.Record(ctx, "users")
		if err != nil {
			return nil, err
		}
		found, err := user.FindByID(ctx, req.Params["id"])
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, web.NewError(404, "user %s not found", req.Params["id"])
		}
		if err := found.Delete(ctx); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": true}, nil
	})

	router.GET("/orders", func(ctx context.Context, req *web.Request) (any, error) {
		order, err := db.Record(ctx, "orders")
		if err != nil {
			return nil, err
		}
		rows, err := order.
			AddJoin("users", "user_id", "id", record.WithJoinFields("name")).
			AddJoin("products", "product_id", "id", record.WithJoinType("LEFT"), record.WithJoinFields("title")).
			FetchWithJoins(ctx, nil)
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
}
