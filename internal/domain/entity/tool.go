package entity

import "time"

// ToolStatus estado derivado de una herramienta a partir de sus existencias.
type ToolStatus string

// Estados de herramienta. Nunca se asignan a mano: ver lending.DeriveToolStatus.
const (
	ToolAvailable   ToolStatus = "available"
	ToolOutOfStock  ToolStatus = "out_of_stock"
	ToolMaintenance ToolStatus = "maintenance"
)

// Tool representa una herramienta o equipo prestable, con existencias por bucket.
// AvailableStock + RepairStock <= TotalStock en todo momento.
type Tool struct {
	ID             string
	Code           string // código único
	Name           string
	CategoryID     *string // opcional
	Condition      string  // etiqueta libre (baik, rusak ringan, ...)
	TotalStock     int
	AvailableStock int
	RepairStock    int
	Status         ToolStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
