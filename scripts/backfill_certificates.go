// 补发结业证书脚本
//
// 为已完成课程但没有证书的报名签发证书（自动颁证关闭期间或颁证失败的记录）。
// 已撤销的证书不会被补发。
//
// 用法: go run scripts/backfill_certificates.go [-dry-run]

package main

import (
	"context"
	"flag"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type backfillOptions struct {
	Backfill struct {
		BatchSize int  `yaml:"batch_size"`
		DryRun    bool `yaml:"dry_run"`
	} `yaml:"backfill"`
}

func readOptions(path string) backfillOptions {
	var opts backfillOptions
	opts.Backfill.BatchSize = 200

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if opts.Backfill.BatchSize <= 0 {
		opts.Backfill.BatchSize = 200
	}
	return opts
}

func main() {
	dryRun := flag.Bool("dry-run", false, "只列出需要补发的记录")
	flag.Parse()

	opts := readOptions("configs/config.yaml")
	if *dryRun {
		opts.Backfill.DryRun = true
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zl := logger.InitLogger(cfg)
	defer zl.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, zl)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var publisher event.Publisher = event.NewLogPublisher(zl)
	if cfg.Events.Enabled {
		p, err := event.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, zl)
		if err != nil {
			log.Fatalf("连接消息队列失败: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	enrollments := repository.NewEnrollmentRepository(db)
	certificates := service.NewCertificateService(
		db,
		repository.NewUserRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewCertificateRepository(db),
		repository.NewEvaluationRepository(db, nil),
		repository.NewAttemptRepository(db),
		publisher,
		zl,
		cfg.Certificate.DefaultExpirationDays,
	)

	res, err := certificates.Backfill(context.Background(), enrollments, opts.Backfill.BatchSize, opts.Backfill.DryRun)
	if err != nil {
		log.Fatalf("补发中断: %v", err)
	}

	if opts.Backfill.DryRun {
		log.Printf("共 %d 条待补发", res.Pending)
		return
	}
	log.Printf("补发完成，待补发 %d 条，签发 %d 张，跳过 %d 条，失败 %d 条", res.Pending, res.Issued, res.Skipped, res.Failed)
	if res.Failed > 0 {
		zl.Sync()
		os.Exit(1)
	}
}
