package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"markdownServer/backend/config"
	"markdownServer/backend/internal/bridge"
	"markdownServer/backend/internal/cache"
	"markdownServer/backend/internal/events"
	"markdownServer/backend/internal/httpapi/handlers"
	"markdownServer/backend/internal/httpapi/middleware"
	"markdownServer/backend/internal/markdown"
	"markdownServer/backend/internal/store"
	"markdownServer/backend/internal/ws"
)

func initConfig() (*config.Config, error) {
	cfg := &config.Config{}
	v := viper.New()
	v.SetConfigName("markdownConfig")
	v.SetConfigType("yaml")
	// 兼容从项目根目录或 backend 目录启动
	v.AddConfigPath("./backend/config")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := initConfig()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}
	log.Printf("config: %+v", cfg)

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis failed: %v", err)
	}
	defer rdb.Close()

	gormDB, err := gorm.Open(mysql.Open(cfg.Mysql.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("open mysql failed: %v", err)
	}
	if err := gormDB.AutoMigrate(&store.Document{}); err != nil {
		log.Fatalf("migrate documents failed: %v", err)
	}

	// 版本历史走裸 SQL，和 gorm 各开一个连接
	rawDB, err := sql.Open("mysql", cfg.Mysql.DSN)
	if err != nil {
		log.Fatalf("open mysql failed: %v", err)
	}
	defer rawDB.Close()
	if _, err := rawDB.Exec(`CREATE TABLE IF NOT EXISTS document_revisions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		document_id BIGINT UNSIGNED NOT NULL,
		revision BIGINT UNSIGNED NOT NULL,
		delta_json LONGTEXT,
		markdown LONGTEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_doc_rev (document_id, revision)
	)`); err != nil {
		log.Fatalf("migrate document_revisions failed: %v", err)
	}

	// === 初始化 Kafka Producer ===
	kafkaCfg := sarama.NewConfig()
	// SyncProducer 必须开启 Return.Successes
	kafkaCfg.Producer.Return.Successes = true
	kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
	if err != nil {
		log.Fatalf("connect kafka failed: %v", err)
	}
	defer producer.Close()

	serializeOpts := markdown.SerializeOptions{
		Fence:            cfg.Markdown.Fence,
		OrderedListStyle: markdown.OrderedListStyle(cfg.Markdown.OrderedListStyle),
	}
	parseOpts := markdown.ParseOptions{
		Fence:      cfg.Markdown.Fence,
		IndentSize: cfg.Markdown.IndentSize,
	}

	kafkaSem := events.NewSemaphoreControl()
	wsSem := events.NewSemaphoreControl()

	// Kafka 本地队列 + worker 重试发送
	dispatcher := events.NewDispatcher(
		producer,
		cfg.Kafka.Topic,
		kafkaSem,
		events.DispatcherOptions{
			QueueSize:   10_000,
			Workers:     4,
			MaxRetry:    3,
			BaseBackoff: 50 * time.Millisecond,
			MaxBackoff:  1 * time.Second,
		},
	)

	docStore := store.NewDocumentStore(gormDB)
	revStore := store.NewRevisionStore(rawDB)
	projections := cache.NewRedisRenderCache(rdb,
		store.NewProjectionRenderer(docStore, revStore, serializeOpts))

	svc := bridge.NewService(docStore, revStore, serializeOpts, parseOpts, dispatcher)

	hub := ws.NewHub()
	manager := ws.NewManager(hub, svc, wsSem)

	convertHandler := handlers.NewConvertHandler(svc)
	docHandler := handlers.NewDocumentHandler(svc, projections)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// 经网关访问时 CORS 由网关统一加，直连调试才开
	if os.Getenv("MARKDOWN_ENABLE_CORS") == "1" {
		r.Use(cors.New(cors.Config{
			AllowOriginFunc:  func(origin string) bool { return true },
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "docid", "docId", "doc_id"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	authed := r.Group("/markdown")
	// 鉴权中间件会从 Authorization 或 ?token= 提取 token，写入 userId/username
	authed.Use(middleware.AuthMiddleware(cfg.Auth.Secret))
	{
		authed.POST("/convert/markdown", convertHandler.DeltaToMarkdown)
		authed.POST("/convert/delta", convertHandler.MarkdownToDelta)

		authed.POST("/documents", docHandler.CreateDocument)
		authed.GET("/documents", docHandler.ListDocuments)
		authed.GET("/documents/:docID", docHandler.GetDocument)
		authed.PUT("/documents/:docID/delta", docHandler.SubmitDelta)
		authed.PUT("/documents/:docID/markdown", docHandler.SubmitMarkdown)
		authed.GET("/documents/:docID/markdown", docHandler.GetMarkdownProjection)

		authed.GET("/ws", manager.WebSocketConnect)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})

	_ = r.Run(fmt.Sprintf(":%d", cfg.Running.Port))
}
