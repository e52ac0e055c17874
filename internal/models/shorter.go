package models

import "github.com/axellelanca/linkshorter/internal/ttl"

// Shorter maps a short path to its target URL.
type Shorter struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Path string `gorm:"column:path;uniqueIndex;not null"`
	URL  string `gorm:"column:url;not null"`

	// TTL is the absolute expiry instant in microseconds; NULL means never.
	TTL ttl.Expiry `gorm:"column:ttl;type:integer"`

	// Token records the credential that created the mapping. Lookups never read it.
	Token *string `gorm:"column:token"`
}

func (Shorter) TableName() string { return "shorters" }
