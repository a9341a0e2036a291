package repository

import (
	"errors"
	"fmt"
	"log"

	"screener/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResponseRepository is the durable store for submitted questionnaire answers.
// Records are only ever inserted or bulk-deleted, never updated.
type ResponseRepository interface {
	InsertOne(record *models.ResponseRecord) (uint, error)
	InsertMany(records []*models.ResponseRecord) error
	FetchAll() ([]*models.ResponseRecord, error)
	DeleteAll() (int64, error)
	FetchByUser(userEmail string) ([]*models.ResponseRecord, error)
	CountByTypeAndUser(questionnaireType, userEmail string) (int64, error)
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository creates a gorm-backed ResponseRepository.
// The questionnaire_responses table is migrated in main.
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

// InsertOne stores a single record and returns the id the database assigned.
func (r *responseRepository) InsertOne(record *models.ResponseRecord) (uint, error) {
	if record == nil {
		log.Printf("ERROR: [ResponseRepository] InsertOne: record cannot be nil")
		return 0, errors.New("record cannot be nil")
	}
	record.ID = 0
	if err := r.db.Create(record).Error; err != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to insert response for user '%s': %v", record.UserEmail, err)
		return 0, fmt.Errorf("failed to insert response for user '%s': %w", record.UserEmail, err)
	}
	log.Printf("INFO: [ResponseRepository] Inserted response ID %d (section '%s') for user '%s'.", record.ID, record.Section, record.UserEmail)
	return record.ID, nil
}

// InsertMany stores the batch in a single transaction; either every record is written or none is.
func (r *responseRepository) InsertMany(records []*models.ResponseRecord) error {
	if len(records) == 0 {
		log.Println("INFO: [ResponseRepository] InsertMany called with an empty batch, nothing to do.")
		return nil
	}
	for _, rec := range records {
		if rec == nil {
			return errors.New("batch contains a nil record")
		}
		rec.ID = 0
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to insert batch of %d responses: %v", len(records), err)
		return fmt.Errorf("failed to insert batch of %d responses: %w", len(records), err)
	}
	log.Printf("INFO: [ResponseRepository] Inserted batch of %d responses.", len(records))
	return nil
}

// FetchAll returns every stored record ordered by id.
func (r *responseRepository) FetchAll() ([]*models.ResponseRecord, error) {
	var records []*models.ResponseRecord
	if err := r.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).Find(&records).Error; err != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to fetch responses: %v", err)
		return nil, fmt.Errorf("failed to fetch responses: %w", err)
	}
	return records, nil
}

// DeleteAll wipes the table and reports how many rows were removed.
func (r *responseRepository) DeleteAll() (int64, error) {
	result := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ResponseRecord{})
	if result.Error != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to delete responses: %v", result.Error)
		return 0, fmt.Errorf("failed to delete responses: %w", result.Error)
	}
	log.Printf("INFO: [ResponseRepository] Deleted %d responses.", result.RowsAffected)
	return result.RowsAffected, nil
}

// FetchByUser returns the records stored for userEmail, newest first.
func (r *responseRepository) FetchByUser(userEmail string) ([]*models.ResponseRecord, error) {
	var records []*models.ResponseRecord
	err := r.db.Where("user_email = ?", userEmail).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Find(&records).Error
	if err != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to fetch responses for user '%s': %v", userEmail, err)
		return nil, fmt.Errorf("failed to fetch responses for user '%s': %w", userEmail, err)
	}
	return records, nil
}

// CountByTypeAndUser counts the records of one questionnaire kind stored for userEmail.
func (r *responseRepository) CountByTypeAndUser(questionnaireType, userEmail string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ResponseRecord{}).
		Where("questionnaire_type = ? AND user_email = ?", questionnaireType, userEmail).
		Count(&count).Error
	if err != nil {
		log.Printf("ERROR: [ResponseRepository] Failed to count '%s' responses for user '%s': %v", questionnaireType, userEmail, err)
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}
