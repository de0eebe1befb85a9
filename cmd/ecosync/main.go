package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Mujanati13/eco-solutions-sub001/internal/config"
	"github.com/Mujanati13/eco-solutions-sub001/internal/importer"
	"github.com/Mujanati13/eco-solutions-sub001/internal/pricing"
	"github.com/Mujanati13/eco-solutions-sub001/internal/scheduler"
	"github.com/Mujanati13/eco-solutions-sub001/internal/server"
	"github.com/Mujanati13/eco-solutions-sub001/internal/source"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

var (
	port      = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode   = flag.Bool("dev", false, "开发模式")
	dataDir   = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	sourceDir = flag.String("sourceDir", "", "订单表格来源目录 (覆盖配置文件)")
	noScan    = flag.Bool("noScan", false, "关闭定时扫描，仅保留 API")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *sourceDir != "" {
		cfg.Scan.SourceDir = *sourceDir
	}

	level := slog.LevelInfo
	if cfg.Server.DevMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// 确保数据目录存在
	resolvedDataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Fatalf("创建数据目录失败: %v", err)
	}

	st, err := store.New(filepath.Join(resolvedDataDir, "ecosync.db"))
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer st.Close()

	pr := pricing.NewResolver(st, pricing.Defaults{
		Price:   cfg.Pricing.DefaultPrice,
		MinDays: cfg.Pricing.DefaultDeliveryMinDays,
		MaxDays: cfg.Pricing.DefaultDeliveryMaxDays,
	})
	orch := importer.NewOrchestrator(st, pr)

	srcDir := config.ResolveSourceDir(cfg)
	src := source.NewFolderSource(srcDir)
	sched := scheduler.New(st, src, orch,
		time.Duration(cfg.Scan.IntervalMinutes)*time.Minute, cfg.Scan.NameFilters)

	if !*noScan {
		slog.Info("scan scheduler started",
			"source_dir", srcDir, "interval_minutes", cfg.Scan.IntervalMinutes)
		sched.Start()
	}

	srv := server.NewServer(cfg, st, orch, sched)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	if !*noScan {
		sched.Stop()
	}
}
