package repository

import (
	"github.com/lshigami/vivavoce/internal/model"
	"gorm.io/gorm"
)

type MaterialRepository interface {
	Create(material *model.StudyMaterial) error
	FindBySessionID(sessionID string) ([]model.StudyMaterial, error)
}

type materialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(material *model.StudyMaterial) error {
	return r.db.Create(material).Error
}

func (r *materialRepository) FindBySessionID(sessionID string) ([]model.StudyMaterial, error) {
	var materials []model.StudyMaterial
	if err := r.db.Where("session_id = ?", sessionID).Order("id ASC").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}
