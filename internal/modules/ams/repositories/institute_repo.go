package repositories

import (
	"github.com/adwelink/ams-api/internal/core/notification"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InstituteRepo interface {
	WithTx(tx *gorm.DB) InstituteRepo
	Create(institute *models.Institute) error
	GetByID(id uuid.UUID) (*models.Institute, error)
	GetByPhoneNumberID(phoneNumberID string) (*models.Institute, error)
	SlugExists(slug string) (bool, error)
	Update(id uuid.UUID, fields map[string]interface{}) error
	SetStatus(id uuid.UUID, status string) error
	List(filter models.InstituteFilter) ([]models.Institute, int64, error)
	Detail(id uuid.UUID) (*models.InstituteDetail, error)
	AdminContacts(id uuid.UUID) ([]notification.AdminContact, error)
	ListActive() ([]models.Institute, error)
}

type instituteRepo struct {
	db *gorm.DB
}

func NewInstituteRepo(db *gorm.DB) InstituteRepo {
	return &instituteRepo{db: db}
}

func (r *instituteRepo) WithTx(tx *gorm.DB) InstituteRepo {
	return &instituteRepo{db: tx}
}

func (r *instituteRepo) Create(institute *models.Institute) error {
	return r.db.Create(institute).Error
}

func (r *instituteRepo) GetByID(id uuid.UUID) (*models.Institute, error) {
	var institute models.Institute
	if err := r.db.First(&institute, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &institute, nil
}

func (r *instituteRepo) GetByPhoneNumberID(phoneNumberID string) (*models.Institute, error) {
	var institute models.Institute
	err := r.db.Where("wa_phone_number_id = ?", phoneNumberID).First(&institute).Error
	if err != nil {
		return nil, err
	}
	return &institute, nil
}

func (r *instituteRepo) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Institute{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *instituteRepo) Update(id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.Model(&models.Institute{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *instituteRepo) SetStatus(id uuid.UUID, status string) error {
	return r.Update(id, map[string]interface{}{"status": status})
}

func (r *instituteRepo) List(filter models.InstituteFilter) ([]models.Institute, int64, error) {
	var institutes []models.Institute
	var total int64

	query := r.db.Model(&models.Institute{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = searchAny(query, filter.Search, "name", "slug", "email", "city")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, size, offset := Paginate(filter.Page, filter.PageSize)
	err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&institutes).Error
	return institutes, total, err
}

func (r *instituteRepo) Detail(id uuid.UUID) (*models.InstituteDetail, error) {
	institute, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	detail := &models.InstituteDetail{Institute: *institute}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"institute_users", &detail.UserCount},
		{"leads", &detail.LeadCount},
		{"courses", &detail.CourseCount},
		{"conversations", &detail.ConversationCount},
	}
	for _, c := range counts {
		if err := r.db.Table(c.table).Where("institute_id = ?", id).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (r *instituteRepo) AdminContacts(id uuid.UUID) ([]notification.AdminContact, error) {
	var contacts []notification.AdminContact
	err := r.db.Table("institute_users AS u").
		Select("u.name AS name, u.email AS email, i.name AS institute_name").
		Joins("JOIN institutes i ON i.id = u.institute_id").
		Where("u.institute_id = ? AND u.role = ? AND u.is_active = ?", id, "institute_admin", true).
		Scan(&contacts).Error
	return contacts, err
}

func (r *instituteRepo) ListActive() ([]models.Institute, error) {
	var institutes []models.Institute
	err := r.db.Where("status = ?", models.InstituteStatusActive).Find(&institutes).Error
	return institutes, err
}
