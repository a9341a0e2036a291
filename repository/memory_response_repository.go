package repository

import (
	"errors"
	"log"
	"sort"
	"sync"

	"screener/models"
)

// memoryResponseRepository keeps records in process memory. Used for the "memory" driver.
type memoryResponseRepository struct {
	records   map[uint]*models.ResponseRecord
	userIndex map[string][]uint // user email -> record ids, in insertion order
	nextID    uint
	mu        sync.RWMutex
}

// NewMemoryResponseRepository creates an empty in-memory ResponseRepository.
func NewMemoryResponseRepository() ResponseRepository {
	return &memoryResponseRepository{
		records:   make(map[uint]*models.ResponseRecord),
		userIndex: make(map[string][]uint),
		nextID:    1,
	}
}

func (r *memoryResponseRepository) InsertOne(record *models.ResponseRecord) (uint, error) {
	if record == nil {
		return 0, errors.New("record cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.insertLocked(record)
	log.Printf("INFO: [MemoryResponseRepository] Inserted response ID %d for user '%s'.", id, record.UserEmail)
	return id, nil
}

func (r *memoryResponseRepository) InsertMany(records []*models.ResponseRecord) error {
	for _, rec := range records {
		if rec == nil {
			return errors.New("batch contains a nil record")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		r.insertLocked(rec)
	}
	log.Printf("INFO: [MemoryResponseRepository] Inserted batch of %d responses.", len(records))
	return nil
}

// insertLocked stores a copy so later changes to the caller's value are not visible. Caller holds mu.
func (r *memoryResponseRepository) insertLocked(record *models.ResponseRecord) uint {
	record.ID = r.nextID
	r.nextID++
	stored := *record
	r.records[stored.ID] = &stored
	r.userIndex[stored.UserEmail] = append(r.userIndex[stored.UserEmail], stored.ID)
	return stored.ID
}

func (r *memoryResponseRepository) FetchAll() ([]*models.ResponseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.ResponseRecord, 0, len(r.records))
	for _, rec := range r.records {
		c := *rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryResponseRepository) DeleteAll() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.records))
	r.records = make(map[uint]*models.ResponseRecord)
	r.userIndex = make(map[string][]uint)
	log.Printf("INFO: [MemoryResponseRepository] Deleted %d responses.", n)
	return n, nil
}

func (r *memoryResponseRepository) FetchByUser(userEmail string) ([]*models.ResponseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.userIndex[userEmail]
	out := make([]*models.ResponseRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := r.records[id]
		if !ok {
			log.Printf("ERROR: [MemoryResponseRepository] Data inconsistency: ID %d indexed for user '%s' but not stored.", id, userEmail)
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryResponseRepository) CountByTypeAndUser(questionnaireType, userEmail string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, id := range r.userIndex[userEmail] {
		if rec, ok := r.records[id]; ok && rec.QuestionnaireType == questionnaireType {
			n++
		}
	}
	return n, nil
}
