package models

import "github.com/axellelanca/linkshorter/internal/ttl"

// Token is a bearer credential that gates write access to the shorter.
type Token struct {
	// ID is the storage row id, never used as a lookup key.
	ID uint `gorm:"primaryKey;autoIncrement"`

	// Token is the opaque credential itself; at most one row per value.
	Token string `gorm:"column:token;uniqueIndex;not null"`

	// TTL is the absolute expiry instant in microseconds; NULL means never.
	TTL ttl.Expiry `gorm:"column:ttl;type:integer"`
}

// TableName keeps the table name stable regardless of GORM naming rules.
func (Token) TableName() string { return "tokens" }
