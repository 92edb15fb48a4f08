package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
)

// MemoryStore is the in-memory DatasetStore fallback used when no database
// is reachable. It honors the same contract as GormStore, including the
// retention policy, but loses all state on restart.
type MemoryStore struct {
	mu             sync.Mutex
	retentionLimit int
	datasets       map[uuid.UUID]*entity.Dataset
	records        map[uuid.UUID][]entity.Record
}

func NewMemoryStore(retentionLimit int) *MemoryStore {
	if retentionLimit <= 0 {
		retentionLimit = DefaultRetentionLimit
	}
	return &MemoryStore{
		retentionLimit: retentionLimit,
		datasets:       make(map[uuid.UUID]*entity.Dataset),
		records:        make(map[uuid.UUID][]entity.Record),
	}
}

func (s *MemoryStore) Create(ctx context.Context, ownerID uuid.UUID, filename string, rows []analytics.Row, summary *analytics.Summary) (*entity.Dataset, error) {
	if summary == nil || len(rows) == 0 {
		return nil, analytics.ErrEmptyDataset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	avgFlowrate := summary.AvgFlowrate
	avgPressure := summary.AvgPressure
	avgTemperature := summary.AvgTemperature

	dataset := &entity.Dataset{
		ID:             uuid.New(),
		UserID:         ownerID,
		Filename:       filename,
		UploadedAt:     time.Now().UTC(),
		TotalRecords:   summary.TotalEquipment,
		AvgFlowrate:    &avgFlowrate,
		AvgPressure:    &avgPressure,
		AvgTemperature: &avgTemperature,
	}

	records := make([]entity.Record, len(rows))
	for i, row := range rows {
		records[i] = entity.Record{
			ID:            uuid.New(),
			DatasetID:     dataset.ID,
			EquipmentName: row.EquipmentName,
			EquipmentType: row.EquipmentType,
			Flowrate:      row.Flowrate,
			Pressure:      row.Pressure,
			Temperature:   row.Temperature,
		}
	}

	s.datasets[dataset.ID] = dataset
	s.records[dataset.ID] = records
	s.pruneLocked(ownerID)

	copied := *dataset
	return &copied, nil
}

// pruneLocked removes the owner's datasets beyond the retention limit.
// Caller holds the mutex, which also serializes concurrent uploads.
func (s *MemoryStore) pruneLocked(ownerID uuid.UUID) {
	owned := s.listLocked(ownerID)
	for _, stale := range owned[min(s.retentionLimit, len(owned)):] {
		delete(s.records, stale.ID)
		delete(s.datasets, stale.ID)
	}
}

func (s *MemoryStore) listLocked(ownerID uuid.UUID) []entity.Dataset {
	var owned []entity.Dataset
	for _, dataset := range s.datasets {
		if dataset.UserID == ownerID {
			owned = append(owned, *dataset)
		}
	}
	// Newest first; timestamp ties break toward the larger id so the
	// ascending-id side of a tie is pruned first.
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].UploadedAt.Equal(owned[j].UploadedAt) {
			return owned[i].UploadedAt.After(owned[j].UploadedAt)
		}
		return strings.Compare(owned[i].ID.String(), owned[j].ID.String()) > 0
	})
	return owned
}

func (s *MemoryStore) Get(ctx context.Context, id, ownerID uuid.UUID) (*entity.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataset, ok := s.datasets[id]
	if !ok || dataset.UserID != ownerID {
		return nil, ErrNotFound
	}
	copied := *dataset
	return &copied, nil
}

func (s *MemoryStore) Records(ctx context.Context, id, ownerID uuid.UUID) ([]entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataset, ok := s.datasets[id]
	if !ok || dataset.UserID != ownerID {
		return nil, ErrNotFound
	}

	records := make([]entity.Record, len(s.records[id]))
	copy(records, s.records[id])
	sort.Slice(records, func(i, j int) bool {
		if records[i].EquipmentName != records[j].EquipmentName {
			return records[i].EquipmentName < records[j].EquipmentName
		}
		return strings.Compare(records[i].ID.String(), records[j].ID.String()) < 0
	})
	return records, nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID uuid.UUID) ([]entity.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ownerID), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataset, ok := s.datasets[id]
	if !ok || dataset.UserID != ownerID {
		return ErrNotFound
	}
	delete(s.records, id)
	delete(s.datasets, id)
	return nil
}

func (s *MemoryStore) SetStoragePath(ctx context.Context, id uuid.UUID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataset, ok := s.datasets[id]
	if !ok {
		return ErrNotFound
	}
	dataset.StoragePath = &path
	return nil
}

// MemoryUserStore is the in-memory UserStore fallback.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*entity.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}
