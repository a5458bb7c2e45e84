package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrations embed.FS

type gooseLogger struct{ s *zap.SugaredLogger }

func (g gooseLogger) Printf(format string, v ...interface{}) { g.s.Infof(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.s.Fatalf(format, v...) }

// Migrate 执行内嵌的 goose 迁移，按驱动选择目录
func Migrate(ctx context.Context, db *gorm.DB, driver string, l *zap.Logger) error {
	dir, err := migrationDir(driver)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{s: l.Named("migrate").Sugar()})
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrationDir(driver string) (string, error) {
	switch driver {
	case "postgres", "mysql":
		return "migrations/" + driver, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}
