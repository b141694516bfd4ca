// models/peripheral.go
package models

import "time"

const (
	PeripheralTable = "inv_peripherals"
	LinkTable       = "inv_equipment_peripherals"
)

// Peripheral is an accessory (mouse, carregador, monitor...) that can be
// linked to one item at a time.
type Peripheral struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Tipo           string           `gorm:"size:50;not null;index" json:"tipo"`
	Brand          string           `gorm:"size:100" json:"brand"`
	Model          string           `gorm:"size:100" json:"model"`
	Identificador  string           `gorm:"size:100;not null;index" json:"identificador"`
	Status         PeripheralStatus `gorm:"size:20;not null;index" json:"status"`
	DateRegistered time.Time        `gorm:"not null" json:"date_registered"`
	IsActive       bool             `gorm:"not null;index" json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (Peripheral) TableName() string { return PeripheralTable }

// EquipmentPeripheral links a peripheral to an item. A row exists iff the
// peripheral is Em Uso.
type EquipmentPeripheral struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EquipmentID  uint      `gorm:"not null;uniqueIndex:idx_equipment_peripheral" json:"equipment_id"`
	PeripheralID uint      `gorm:"not null;uniqueIndex:idx_equipment_peripheral;index" json:"peripheral_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (EquipmentPeripheral) TableName() string { return LinkTable }

// PeripheralFields is the editable part of a peripheral.
type PeripheralFields struct {
	Tipo          string `json:"tipo" validate:"required"`
	Brand         string `json:"brand" validate:"required"`
	Model         string `json:"model"`
	Identificador string `json:"identificador" validate:"required"`
}
