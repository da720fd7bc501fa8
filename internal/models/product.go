package models

import "time"

// Product represents a product in the catalog.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Price     float64   `json:"price" gorm:"not null"`
	Available bool      `json:"available" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides the table name used by GORM.
func (Product) TableName() string {
	return "productos"
}
