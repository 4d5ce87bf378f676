package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/LouYuanbo1/mapsagent/internal/infra/persistence/postgres"
	"github.com/LouYuanbo1/mapsagent/internal/service/enrich"
	"github.com/LouYuanbo1/mapsagent/internal/service/scraper"
	"github.com/LouYuanbo1/mapsagent/param"
	"github.com/joho/godotenv"
)

//go:embed appconfig/appconfig.json
var appConfig []byte

// 命令行版抓取入口,方便不起HTTP服务时单次采集
func main() {
	query := flag.String("query", "", "搜索关键词,必填")
	maxPlaces := flag.Int("max", 20, "最多抓取的地点数")
	lang := flag.String("lang", "", "界面语言,留空用配置默认值")
	headless := flag.Bool("headless", true, "是否无头运行浏览器")
	store := flag.Bool("store", false, "是否写入数据库")
	doEnrich := flag.Bool("enrich", false, "是否访问官网补充邮箱")
	flag.Parse()

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	appcfg, err := config.ParseConfig(appConfig)
	if err != nil {
		log.Fatalf("解析配置失败: %v", err)
	}
	appcfg.ApplyEnv()

	timeout := time.Duration(appcfg.Server.RequestTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var pg *postgres.Client
	var placeStore scraper.PlaceStore
	if *store {
		if !appcfg.HasPostgres() {
			log.Fatalf("指定了-store但未配置数据库连接")
		}
		pg, err = postgres.InitClient(appcfg)
		if err != nil {
			log.Fatalf("初始化Postgres客户端失败: %v", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("初始化表结构失败: %v", err)
		}
		placeStore = pg
	}

	svc := scraper.InitScraperService(appcfg, placeStore, enrich.InitEnrichService(appcfg))

	result, err := svc.Run(ctx, &param.Scrape{
		Query:     *query,
		MaxPlaces: *maxPlaces,
		Lang:      *lang,
		Headless:  *headless,
		Store:     *store,
		Enrich:    *doEnrich,
	})
	if err != nil {
		log.Fatalf("抓取失败: %v", err)
	}
	if result.PersistenceErr != nil {
		log.Printf("入库失败: %v", result.PersistenceErr)
	}

	out, err := json.MarshalIndent(struct {
		Query   string         `json:"query"`
		Status  string         `json:"status"`
		Places  []*model.Place `json:"places"`
		Dropped int            `json:"dropped"`
	}{
		Query:   *query,
		Status:  string(result.History.Status),
		Places:  result.Places,
		Dropped: result.History.Dropped,
	}, "", "  ")
	if err != nil {
		log.Fatalf("序列化结果失败: %v", err)
	}
	fmt.Println(string(out))
}
