package repository

import (
	"errors"

	"github.com/lshigami/vivavoce/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateResponse is returned when a question of a session already has
// a stored response.
var ErrDuplicateResponse = errors.New("response already stored for question")

type ResponseRepository interface {
	Create(response *model.Response) error
	FindBySessionID(sessionID string) ([]model.Response, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(response *model.Response) error {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(response)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateResponse
	}
	return nil
}

func (r *responseRepository) FindBySessionID(sessionID string) ([]model.Response, error) {
	var responses []model.Response
	if err := r.db.Where("session_id = ?", sessionID).Order("position ASC").Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}
