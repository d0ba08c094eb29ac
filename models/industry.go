package models

import (
	"context"
	"errors"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
)

// Industry is the business-type lookup used by registration and by
// inspection-batch cohort filters.
type Industry struct {
	ID          int    `gorm:"primary_key" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    *bool  `gorm:"not null;default:true" json:"is_active"`
}

type NewIndustry struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (input *NewIndustry) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Industry](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateIndustry(ctx context.Context, input *NewIndustry) (*Industry, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	industry := Industry{
		Name:        input.Name,
		Description: input.Description,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&industry).Error
	if err != nil {
		return nil, err
	}
	return &industry, nil
}

func UpdateIndustry(ctx context.Context, id int, input *NewIndustry) (*Industry, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var industry Industry
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&industry, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	err := db.WithContext(ctx).Model(&industry).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Industry](id); err != nil {
		return nil, err
	}
	return &industry, nil
}

func DeleteIndustry(ctx context.Context, id int) (*Industry, error) {

	db := config.GetDB()
	var result Industry

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var count int64
	err = db.WithContext(ctx).Model(&Business{}).Where("industry_id = ?", id).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by business")
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Industry](id); err != nil {
		return nil, err
	}
	return &result, nil
}

func GetIndustry(ctx context.Context, id int) (*Industry, error) {

	result, err := utils.RetrieveRedis[Industry](id)
	if err != nil {
		return nil, err
	}

	if result == nil {
		db := config.GetDB()
		err := db.WithContext(ctx).First(&result, id).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := utils.StoreRedis[Industry](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func GetIndustries(ctx context.Context) ([]*Industry, error) {

	db := config.GetDB()
	var results []*Industry
	err := db.WithContext(ctx).Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
