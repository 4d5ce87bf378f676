package main

import (
	"context"
	_ "embed"
	"log"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/infra/persistence/postgres"
	"github.com/LouYuanbo1/mapsagent/internal/server"
	"github.com/LouYuanbo1/mapsagent/internal/service/enrich"
	"github.com/LouYuanbo1/mapsagent/internal/service/scraper"
	"github.com/joho/godotenv"
)

//使用go:embed嵌入appconfig.json文件
//下方注释重要,不能删除
//Github上保存的appconfig_example.json文件为样例,以实际为准

//go:embed appconfig/appconfig.json
var appConfig []byte

func main() {
	//.env不存在时忽略,线上直接注入环境变量
	_ = godotenv.Load()

	appcfg, err := config.ParseConfig(appConfig)
	if err != nil {
		log.Fatalf("解析配置失败: %v", err)
	}
	appcfg.ApplyEnv()

	ctx := context.Background()

	//未配置数据库时服务降级运行,抓取结果只返回不落库
	var store *postgres.Client
	if appcfg.HasPostgres() {
		store, err = postgres.InitClient(appcfg)
		if err != nil {
			log.Fatalf("初始化Postgres客户端失败: %v", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("初始化表结构失败: %v", err)
		}
	} else {
		log.Println("未配置数据库连接,以无持久化模式启动")
	}

	enricher := enrich.InitEnrichService(appcfg)

	var scraperSvc scraper.ScraperService
	var history server.HistoryReader
	if store != nil {
		scraperSvc = scraper.InitScraperService(appcfg, store, enricher)
		history = store
	} else {
		scraperSvc = scraper.InitScraperService(appcfg, nil, enricher)
	}

	srv := server.InitServer(appcfg, scraperSvc, history)
	if err := srv.Run(); err != nil {
		log.Fatalf("HTTP服务启动失败: %v", err)
	}
}
