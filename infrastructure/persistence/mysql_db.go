package persistence

import (
	"fmt"

	"omnipost/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MySQLDSN(cfg configuration.Db) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// NewRepositories opens the MySQL database through gorm.
func NewRepositories() (*gorm.DB, error) {
	return gorm.Open(mysql.Open(MySQLDSN(configuration.C.Database.MySql)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
