package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Order        *OrderRepository
	Record       *RecordRepository
	Update       *UpdateRepository
	Job          *JobRepository
	Event        *EventRepository
	Manufacturer *ManufacturerRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:        NewOrderRepository(db),
		Record:       NewRecordRepository(db),
		Update:       NewUpdateRepository(db),
		Job:          NewJobRepository(db),
		Event:        NewEventRepository(db),
		Manufacturer: NewManufacturerRepository(db),
	}
}
