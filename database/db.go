package database

import (
	"fmt"
	"os"
	"path"

	"github.com/igor04091968/tunnel-panel/config"
	"github.com/igor04091968/tunnel-panel/database/model"

	sqlitegorm "github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func initUser(db *gorm.DB) error {
	var count int64
	err := db.Model(&model.User{}).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &model.User{
			Username: "admin",
			Password: string(hash),
		}
		return db.Create(user).Error
	}
	return nil
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "", "sqlite":
		dir := path.Dir(cfg.Path)
		err := os.MkdirAll(dir, 0o750)
		if err != nil {
			return nil, err
		}
		return sqlitegorm.Open(cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// Open connects to the configured database without touching the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger: gormLogger,
	}
	conn, err := gorm.Open(d, c)
	if err != nil {
		return nil, err
	}
	if config.IsDebug() {
		conn = conn.Debug()
	}
	return conn, nil
}

// Migrate creates or updates every table and seeds the first admin user.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&model.Setting{},
		&model.User{},
		&model.Tunnel{},
		&model.Change{},
	)
	if err != nil {
		return err
	}
	return initUser(conn)
}

func InitDB(cfg config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	if err = Migrate(conn); err != nil {
		return err
	}
	db = conn
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
