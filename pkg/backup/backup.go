package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"WildVoice/pkg/config"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/scheduler"
)

// Schedule 把数据库备份任务挂到调度器上
func Schedule(cr *scheduler.Cron) error {
	_, err := cr.Add(config.GlobalConfig.BackupSchedule, scheduler.FuncJob(func(ctx context.Context) {
		if err := Execute(); err != nil {
			logger.Warn("backup failed", zap.Error(err))
			return
		}
		logger.Info("backup completed")
	}))
	return err
}

// Execute 根据配置执行数据库备份
func Execute() error {
	ts := time.Now().Format("20060102_150405")
	switch config.GlobalConfig.DBDriver {
	case "", "sqlite":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("wildvoice_backup_%s.db", ts))
		return backupSQLite(config.GlobalConfig.DSN, dst)
	case "mysql":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("wildvoice_backup_%s.sql", ts))
		return backupMySQL(config.GlobalConfig.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", config.GlobalConfig.DBDriver)
	}
}

func backupSQLite(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("error copying data: %w", err)
	}

	logger.Info("sqlite backup completed", zap.String("dst", dst))
	return nil
}

func backupMySQL(dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer destFile.Close()

	cmd := exec.Command("mysqldump", dsn)
	cmd.Stdout = destFile
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to backup MySQL database: %w", err)
	}

	logger.Info("mysql backup completed", zap.String("dst", dst))
	return nil
}
