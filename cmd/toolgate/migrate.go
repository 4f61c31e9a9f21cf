package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BaSui01/toolgate/internal/database"
	"github.com/BaSui01/toolgate/internal/migration"
	"go.uber.org/zap"
)

// =============================================================================
// 🗄️ 审计库迁移命令
// =============================================================================

// runMigrate 处理 migrate 子命令
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	switch subcommand {
	case "up", "down", "status", "version":
	case "help", "-h", "--help":
		printMigrateUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("migrate "+subcommand, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite); defaults to config")
	_ = fs.Parse(args[1:])

	if err := migrate(*configPath, *dbType, subcommand); err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", subcommand, err)
		os.Exit(1)
	}
}

// migrate 复用 serve 的数据库配置打开连接，Migrator 关闭时一并释放
func migrate(configPath, dbType, subcommand string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if dbType != "" {
		cfg.Database.Driver = dbType
	}

	driver, err := migration.ParseDatabaseType(cfg.Database.Driver)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	m, err := migration.New(sqlDB, driver, zap.NewNop())
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()

	return migration.NewCLI(m).Run(subcommand)
}

// printMigrateUsage 打印 migrate 用法
func printMigrateUsage() {
	fmt.Println(`Audit Database Migration Commands

Usage:
  toolgate migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration
  status    Show migration status
  version   Show current migration version
  help      Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --db-type <type>    Database type: postgres, mysql, sqlite (default: from config)

Examples:
  toolgate migrate up
  toolgate migrate up --config /etc/toolgate/config.yaml
  toolgate migrate status --db-type sqlite`)
}
