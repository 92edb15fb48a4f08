package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dataset is one CSV upload: metadata plus cached averages computed once at
// creation. Records carry the per-row data and are removed by cascade.
type Dataset struct {
	gorm.Model
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID         uuid.UUID `json:"-" gorm:"type:uuid;not null;index:idx_dataset_user_uploaded"`
	Filename       string    `json:"filename" gorm:"type:varchar(255);not null"`
	UploadedAt     time.Time `json:"uploaded_at" gorm:"not null;index:idx_dataset_user_uploaded"`
	TotalRecords   int       `json:"total_records" gorm:"not null;default:0"`
	AvgFlowrate    *float64  `json:"avg_flowrate"`
	AvgPressure    *float64  `json:"avg_pressure"`
	AvgTemperature *float64  `json:"avg_temperature"`
	StoragePath    *string   `json:"storage_path,omitempty" gorm:"type:varchar(500)"`
	Records        []Record  `json:"-" gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
}

func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	return nil
}
