package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Record struct {
	gorm.Model
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DatasetID     uuid.UUID `json:"dataset_id" gorm:"type:uuid;not null;index:idx_record_dataset_type"`
	EquipmentName string    `json:"equipment_name" gorm:"type:varchar(255)"`
	EquipmentType string    `json:"equipment_type" gorm:"type:varchar(100);index:idx_record_dataset_type"`
	Flowrate      float64   `json:"flowrate" gorm:"not null"`
	Pressure      float64   `json:"pressure" gorm:"not null"`
	Temperature   float64   `json:"temperature" gorm:"not null"`
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
