package models

import (
	"context"
	"errors"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
)

type Business struct {
	ID                 uuid.UUID      `gorm:"primary_key" json:"id"`
	Name               string         `gorm:"index;size:100;not null" json:"name"`
	RegistrationNumber string         `gorm:"uniqueIndex;size:50;not null" json:"registration_number"`
	OwnerName          string         `gorm:"size:100;not null" json:"owner_name"`
	Email              string         `gorm:"size:255" json:"email"`
	Phone              string         `gorm:"size:20" json:"phone"`
	Address            string         `gorm:"type:text" json:"address"`
	IndustryId         int            `gorm:"index" json:"industry_id"`
	ProvinceCode       string         `gorm:"index;size:10" json:"province_code"`
	WardCode           string         `gorm:"index;size:10" json:"ward_code"`
	Status             BusinessStatus `gorm:"type:enum('active', 'suspended', 'closed');default:active" json:"status"`
	RegisteredDate     time.Time      `json:"registered_date"`
	IsActive           *bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name               string         `json:"name" binding:"required"`
	RegistrationNumber string         `json:"registration_number" binding:"required"`
	OwnerName          string         `json:"owner_name" binding:"required"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone"`
	Address            string         `json:"address"`
	IndustryId         int            `json:"industry_id" binding:"required"`
	ProvinceCode       string         `json:"province_code" binding:"required"`
	WardCode           string         `json:"ward_code" binding:"required"`
	Status             BusinessStatus `json:"status"`
	RegisteredDate     utils.FlexDate `json:"registered_date"`
}

type BusinessesEdge Edge[Business]
type BusinessesConnection struct {
	PageInfo *PageInfo         `json:"pageInfo"`
	Edges    []*BusinessesEdge `json:"edges"`
}

func (b Business) GetCursor() string {
	return b.Name
}

// validate input for both create & update. (id = uuid.Nil for create)
func (input *NewBusiness) validate(ctx context.Context, id uuid.UUID) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if err := utils.ValidateUnique[Business](ctx, "registration_number", input.RegistrationNumber, id); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Industry](ctx, input.IndustryId); err != nil {
		return errors.New("industry not found")
	}
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Ward{}).
		Where("code = ? AND province_code = ?", input.WardCode, input.ProvinceCode).
		Count(&count).Error; err != nil {
		return err
	}
	if count <= 0 {
		return errors.New("ward not found in province")
	}
	return nil
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {

	if err := input.validate(ctx, uuid.Nil); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = BusinessStatusActive
	}

	business := Business{
		ID:                 uuid.New(),
		Name:               input.Name,
		RegistrationNumber: input.RegistrationNumber,
		OwnerName:          input.OwnerName,
		Email:              input.Email,
		Phone:              input.Phone,
		Address:            input.Address,
		IndustryId:         input.IndustryId,
		ProvinceCode:       input.ProvinceCode,
		WardCode:           input.WardCode,
		Status:             status,
		RegisteredDate:     input.RegisteredDate.Time,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&business).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[Business](""); err != nil {
		return nil, err
	}
	return &business, nil
}

func UpdateBusiness(ctx context.Context, id uuid.UUID, input *NewBusiness) (*Business, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var business Business
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{
		"Name":               input.Name,
		"RegistrationNumber": input.RegistrationNumber,
		"OwnerName":          input.OwnerName,
		"Email":              input.Email,
		"Phone":              input.Phone,
		"Address":            input.Address,
		"IndustryId":         input.IndustryId,
		"ProvinceCode":       input.ProvinceCode,
		"WardCode":           input.WardCode,
	}
	if input.Status != "" {
		updates["Status"] = input.Status
	}
	if !input.RegisteredDate.IsZero() {
		updates["RegisteredDate"] = input.RegisteredDate.Time
	}
	err := db.WithContext(ctx).Model(&business).Updates(updates).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Business](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Business](""); err != nil {
		return nil, err
	}
	return &business, nil
}

func DeleteBusiness(ctx context.Context, id uuid.UUID) (*Business, error) {

	db := config.GetDB()
	var result Business

	err := db.WithContext(ctx).First(&result, "id = ?", id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	// A business referenced by inspection schedules is part of a batch
	// snapshot; deleting it would orphan those schedules.
	var count int64
	err = db.WithContext(ctx).Model(&InspectionSchedule{}).Where("business_id = ?", id).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by inspection schedule")
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Business](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Business](""); err != nil {
		return nil, err
	}
	return &result, nil
}

func GetBusiness(ctx context.Context, id uuid.UUID) (*Business, error) {

	result, err := utils.RetrieveRedis[Business](id)
	if err != nil {
		return nil, err
	}

	if result == nil {
		db := config.GetDB()
		err := db.WithContext(ctx).First(&result, "id = ?", id).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := utils.StoreRedis[Business](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func GetBusinesses(ctx context.Context, industryId *int, provinceCode *string, wardCode *string, status *string, name *string) ([]*Business, error) {

	db := config.GetDB()
	var results []*Business

	dbCtx := db.WithContext(ctx)
	if industryId != nil && *industryId > 0 {
		dbCtx = dbCtx.Where("industry_id = ?", *industryId)
	}
	if provinceCode != nil && len(*provinceCode) > 0 {
		dbCtx = dbCtx.Where("province_code = ?", *provinceCode)
	}
	if wardCode != nil && len(*wardCode) > 0 {
		dbCtx = dbCtx.Where("ward_code = ?", *wardCode)
	}
	if status != nil && len(*status) > 0 {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetBusinessIdsByFilter returns the ids of active businesses matching an
// inspection-batch cohort filter at this moment. Batch membership is a
// snapshot of this result; later changes to a business do not move it
// between batches.
func GetBusinessIdsByFilter(ctx context.Context, industryId int, provinceCode string, wardCodes []string) ([]uuid.UUID, error) {

	db := config.GetDB()
	var ids []uuid.UUID

	dbCtx := db.WithContext(ctx).Model(&Business{}).
		Where("status = ?", BusinessStatusActive)
	if industryId > 0 {
		dbCtx = dbCtx.Where("industry_id = ?", industryId)
	}
	if provinceCode != "" {
		dbCtx = dbCtx.Where("province_code = ?", provinceCode)
	}
	if len(wardCodes) > 0 {
		dbCtx = dbCtx.Where("ward_code IN ?", wardCodes)
	}
	if err := dbCtx.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func PaginateBusiness(ctx context.Context, limit *int, after *string, industryId *int, provinceCode *string, wardCode *string, name *string) (*BusinessesConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Business{})

	if industryId != nil && *industryId > 0 {
		dbCtx.Where("industry_id = ?", *industryId)
	}
	if provinceCode != nil && *provinceCode != "" {
		dbCtx.Where("province_code = ?", *provinceCode)
	}
	if wardCode != nil && *wardCode != "" {
		dbCtx.Where("ward_code = ?", *wardCode)
	}
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	edges, pageInfo, err := FetchPagePureCursor[Business](dbCtx, pageLimit(limit), after, "name", ">")
	if err != nil {
		return nil, err
	}
	var businessesConnection BusinessesConnection
	businessesConnection.PageInfo = pageInfo
	for _, edge := range edges {
		businessEdge := BusinessesEdge(edge)
		businessesConnection.Edges = append(businessesConnection.Edges, &businessEdge)
	}
	return &businessesConnection, err
}
