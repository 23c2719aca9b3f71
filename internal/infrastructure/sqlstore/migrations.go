package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrMigrationUnsupported はマイグレーション未対応のドライバーを表す
var ErrMigrationUnsupported = errors.New("このドライバーはマイグレーションに対応していません")

// RunMigrations はデータベースマイグレーションを実行する
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var (
		driver database.Driver
		dbName string
		err    error
	)
	switch driverName {
	case "postgres", "pgx":
		driver, err = postgres.WithInstance(db, &postgres.Config{})
		dbName = "postgres"
	case "mysql":
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
		dbName = "mysql"
	default:
		return fmt.Errorf("%w: %s", ErrMigrationUnsupported, driverName)
	}
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		dbName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("マイグレーションインスタンス作成エラー: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	return nil
}
