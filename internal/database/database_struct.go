package database

import "gorm.io/gorm"

// Database — gorm-обертка над хранилищем комнат, участников и сообщений
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
