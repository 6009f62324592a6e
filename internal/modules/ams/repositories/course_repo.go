package repositories

import (
	"strings"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepo interface {
	Create(course *models.Course) error
	GetByID(instituteID, id uuid.UUID) (*models.Course, error)
	FindByName(instituteID uuid.UUID, name string) (*models.Course, error)
	List(instituteID uuid.UUID, activeOnly bool) ([]models.Course, error)
	Update(course *models.Course) error
	Delete(instituteID, id uuid.UUID) error
}

type courseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) CourseRepo {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *courseRepo) GetByID(instituteID, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	err := r.db.Where("institute_id = ? AND id = ?", instituteID, id).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) FindByName(instituteID uuid.UUID, name string) (*models.Course, error) {
	var course models.Course
	err := r.db.Where("institute_id = ? AND LOWER(name) = ?", instituteID, strings.ToLower(strings.TrimSpace(name))).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(instituteID uuid.UUID, activeOnly bool) ([]models.Course, error) {
	var courses []models.Course
	query := r.db.Where("institute_id = ?", instituteID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(course *models.Course) error {
	return r.db.Save(course).Error
}

func (r *courseRepo) Delete(instituteID, id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("institute_id = ? AND id = ?", instituteID, id).Delete(&models.Course{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// detach leads and fee records rather than cascading
		if err := tx.Model(&models.Lead{}).Where("course_id = ?", id).Update("course_id", nil).Error; err != nil {
			return err
		}
		return tx.Model(&models.FeeRecord{}).Where("course_id = ?", id).Update("course_id", nil).Error
	})
}
