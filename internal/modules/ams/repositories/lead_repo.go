package repositories

import (
	"errors"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateLead is returned by Create when the institute already has a
// lead with the same phone number.
var ErrDuplicateLead = errors.New("lead phone already exists")

type LeadRepo interface {
	Create(lead *models.Lead) error
	GetByID(instituteID, id uuid.UUID) (*models.Lead, error)
	GetByPhone(instituteID uuid.UUID, phone string) (*models.Lead, error)
	List(filter models.LeadFilter) ([]models.Lead, int64, error)
	ListForExport(filter models.LeadFilter) ([]models.Lead, error)
	Save(lead *models.Lead) error
	Delete(instituteID, id uuid.UUID) error
	UpdateStatus(lead *models.Lead, activity *models.LeadActivity) error
	AddActivity(activity *models.LeadActivity) error
	ListActivities(leadID uuid.UUID) ([]models.LeadActivity, error)
	TouchContacted(id uuid.UUID, at time.Time) error
	DueFollowUps(now time.Time) ([]models.Lead, error)
	MarkFollowUpsNotified(ids []uuid.UUID, at time.Time) error
}

type leadRepo struct {
	db *gorm.DB
}

func NewLeadRepo(db *gorm.DB) LeadRepo {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(lead *models.Lead) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(lead)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateLead
		}
		return tx.Create(&models.LeadActivity{
			LeadID:   lead.ID,
			Type:     models.ActivityCreated,
			Content:  "Lead created from " + lead.Source,
			ToStatus: lead.Status,
		}).Error
	})
}

func (r *leadRepo) GetByID(instituteID, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Preload("Course").
		Where("institute_id = ? AND id = ?", instituteID, id).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepo) GetByPhone(instituteID uuid.UUID, phone string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.Where("institute_id = ? AND phone = ?", instituteID, phone).First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepo) filtered(filter models.LeadFilter) *gorm.DB {
	query := r.db.Model(&models.Lead{}).Where("institute_id = ?", filter.InstituteID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return searchAny(query, filter.Search, "name", "phone", "email")
}

func (r *leadRepo) List(filter models.LeadFilter) ([]models.Lead, int64, error) {
	var leads []models.Lead
	var total int64

	query := r.filtered(filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, size, offset := Paginate(filter.Page, filter.PageSize)
	err := query.Preload("Course").
		Order("created_at DESC").
		Offset(offset).Limit(size).
		Find(&leads).Error
	return leads, total, err
}

func (r *leadRepo) ListForExport(filter models.LeadFilter) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.filtered(filter).Preload("Course").Order("created_at DESC").Find(&leads).Error
	return leads, err
}

func (r *leadRepo) Save(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

func (r *leadRepo) Delete(instituteID, id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("institute_id = ? AND id = ?", instituteID, id).Delete(&models.Lead{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.LeadActivity{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("lead_id = ?", id).Update("lead_id", nil).Error
	})
}

// UpdateStatus saves the lead and its status_change activity together
func (r *leadRepo) UpdateStatus(lead *models.Lead, activity *models.LeadActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(lead).Error; err != nil {
			return err
		}
		return tx.Create(activity).Error
	})
}

func (r *leadRepo) AddActivity(activity *models.LeadActivity) error {
	return r.db.Create(activity).Error
}

func (r *leadRepo) ListActivities(leadID uuid.UUID) ([]models.LeadActivity, error) {
	var activities []models.LeadActivity
	err := r.db.Where("lead_id = ?", leadID).Order("created_at DESC").Find(&activities).Error
	return activities, err
}

func (r *leadRepo) TouchContacted(id uuid.UUID, at time.Time) error {
	return r.db.Model(&models.Lead{}).Where("id = ?", id).UpdateColumn("last_contacted_at", at).Error
}

// DueFollowUps returns open leads across all active institutes whose
// follow-up time has passed and who have not been notified yet.
func (r *leadRepo) DueFollowUps(now time.Time) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.db.Preload("Course").
		Joins("JOIN institutes ON institutes.id = leads.institute_id").
		Where("institutes.status = ?", models.InstituteStatusActive).
		Where("leads.follow_up_at IS NOT NULL AND leads.follow_up_at <= ?", now).
		Where("leads.follow_up_notified_at IS NULL").
		Where("leads.status IN ?", []string{models.LeadStatusFresh, models.LeadStatusFollowUp}).
		Order("leads.institute_id, leads.follow_up_at").
		Find(&leads).Error
	return leads, err
}

func (r *leadRepo) MarkFollowUpsNotified(ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Lead{}).Where("id IN ?", ids).UpdateColumn("follow_up_notified_at", at).Error
}
