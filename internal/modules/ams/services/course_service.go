package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseService struct {
	repo repositories.CourseRepo
}

func NewCourseService(repo repositories.CourseRepo) *CourseService {
	return &CourseService{repo: repo}
}

func (s *CourseService) List(instituteID uuid.UUID, activeOnly bool) ([]models.Course, error) {
	return s.repo.List(instituteID, activeOnly)
}

func (s *CourseService) Create(instituteID uuid.UUID, req *models.CourseRequest) (*models.Course, error) {
	course := &models.Course{InstituteID: instituteID, IsActive: true}
	if err := applyCourse(course, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *CourseService) Update(instituteID, id uuid.UUID, req *models.CourseRequest) (*models.Course, error) {
	course, err := s.repo.GetByID(instituteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if err := applyCourse(course, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *CourseService) Delete(instituteID, id uuid.UUID) error {
	if err := s.repo.Delete(instituteID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return nil
}

func applyCourse(course *models.Course, req *models.CourseRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	if req.Fee < 0 {
		return invalid("fee", "cannot be negative")
	}
	if req.DurationWeeks < 0 {
		return invalid("duration_weeks", "cannot be negative")
	}
	course.Name = name
	course.Description = strings.TrimSpace(req.Description)
	course.Fee = req.Fee
	course.DurationWeeks = req.DurationWeeks
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	return nil
}
