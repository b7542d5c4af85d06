package entity

import "time"

// Category agrupa herramientas (taladros, medición, ...).
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
