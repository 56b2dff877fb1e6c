package database

import (
	"errors"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, mode string, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate 建表并创建唯一约束（证书 user+course、进度 user+module、尝试编号等）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseModule{},
		&model.Enrollment{},
		&model.Evaluation{},
		&model.Question{},
		&model.Option{},
		&model.Attempt{},
		&model.AttemptSlot{},
		&model.ModuleProgress{},
		&model.Certificate{},
	)
}

// IsDuplicateKey 判断是否违反唯一约束，兼容 MySQL 与 SQLite
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
