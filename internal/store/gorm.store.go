package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
)

const recordBatchSize = 1000

// GormStore is the relational DatasetStore implementation.
type GormStore struct {
	db             *gorm.DB
	retentionLimit int
}

func NewGormStore(db *gorm.DB, retentionLimit int) *GormStore {
	if retentionLimit <= 0 {
		retentionLimit = DefaultRetentionLimit
	}
	return &GormStore{db: db, retentionLimit: retentionLimit}
}

func (s *GormStore) Create(ctx context.Context, ownerID uuid.UUID, filename string, rows []analytics.Row, summary *analytics.Summary) (*entity.Dataset, error) {
	if summary == nil || len(rows) == 0 {
		return nil, analytics.ErrEmptyDataset
	}

	avgFlowrate := summary.AvgFlowrate
	avgPressure := summary.AvgPressure
	avgTemperature := summary.AvgTemperature

	dataset := &entity.Dataset{
		UserID:         ownerID,
		Filename:       filename,
		TotalRecords:   summary.TotalEquipment,
		AvgFlowrate:    &avgFlowrate,
		AvgPressure:    &avgPressure,
		AvgTemperature: &avgTemperature,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dataset).Error; err != nil {
			return fmt.Errorf("failed to create dataset: %w", err)
		}

		records := make([]entity.Record, len(rows))
		for i, row := range rows {
			records[i] = entity.Record{
				DatasetID:     dataset.ID,
				EquipmentName: row.EquipmentName,
				EquipmentType: row.EquipmentType,
				Flowrate:      row.Flowrate,
				Pressure:      row.Pressure,
				Temperature:   row.Temperature,
			}
		}
		if err := tx.CreateInBatches(records, recordBatchSize).Error; err != nil {
			return fmt.Errorf("failed to create records: %w", err)
		}

		return s.prune(tx, ownerID)
	})
	if err != nil {
		return nil, err
	}

	return dataset, nil
}

// prune keeps the owner's newest datasets within the retention limit. Runs
// inside the creating transaction; on postgres the owner's dataset rows are
// locked so concurrent same-owner uploads serialize their count-then-prune.
func (s *GormStore) prune(tx *gorm.DB, ownerID uuid.UUID) error {
	query := tx.Model(&entity.Dataset{})
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uuid.UUID
	err := query.
		Where("user_id = ?", ownerID).
		Order("uploaded_at DESC, id DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to count datasets for retention: %w", err)
	}
	if len(ids) <= s.retentionLimit {
		return nil
	}
	staleIDs := ids[s.retentionLimit:]

	// Unscoped: retention reclaims storage, pruned rows are removed
	// outright rather than soft-deleted.
	if err := tx.Unscoped().Where("dataset_id IN ?", staleIDs).Delete(&entity.Record{}).Error; err != nil {
		return fmt.Errorf("failed to prune records: %w", err)
	}
	if err := tx.Unscoped().Where("id IN ?", staleIDs).Delete(&entity.Dataset{}).Error; err != nil {
		return fmt.Errorf("failed to prune datasets: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id, ownerID uuid.UUID) (*entity.Dataset, error) {
	var dataset entity.Dataset
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (s *GormStore) Records(ctx context.Context, id, ownerID uuid.UUID) ([]entity.Record, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}

	var records []entity.Record
	err := s.db.WithContext(ctx).
		Where("dataset_id = ?", id).
		Order("equipment_name ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) List(ctx context.Context, ownerID uuid.UUID) ([]entity.Dataset, error) {
	var datasets []entity.Dataset
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("uploaded_at DESC, id DESC").
		Find(&datasets).Error
	if err != nil {
		return nil, err
	}
	return datasets, nil
}

func (s *GormStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dataset entity.Dataset
		err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&dataset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Where("dataset_id = ?", id).Delete(&entity.Record{}).Error; err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		if err := tx.Unscoped().Delete(&dataset).Error; err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		return nil
	})
}

func (s *GormStore) SetStoragePath(ctx context.Context, id uuid.UUID, path string) error {
	result := s.db.WithContext(ctx).
		Model(&entity.Dataset{}).
		Where("id = ?", id).
		Update("storage_path", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormUserStore is the relational UserStore implementation.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Create(ctx context.Context, user *entity.User) error {
	var existing entity.User
	err := s.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	if err == nil {
		return ErrDuplicateUsername
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
