package models

import (
	"context"
	"errors"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
)

type Province struct {
	ID       int    `gorm:"primary_key" json:"id"`
	Code     string `gorm:"uniqueIndex;size:10;not null" json:"code"`
	Name     string `gorm:"size:100;not null" json:"name"`
	IsActive *bool  `gorm:"not null;default:true" json:"is_active"`
}

type NewProvince struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type Ward struct {
	ID           int    `gorm:"primary_key" json:"id"`
	Code         string `gorm:"uniqueIndex;size:10;not null" json:"code"`
	ProvinceCode string `gorm:"index;size:10;not null" json:"province_code"`
	Name         string `gorm:"size:100;not null" json:"name"`
	IsActive     *bool  `gorm:"not null;default:true" json:"is_active"`
}

type NewWard struct {
	Code         string `json:"code" binding:"required"`
	ProvinceCode string `json:"province_code" binding:"required"`
	Name         string `json:"name" binding:"required"`
}

func (input *NewProvince) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Province](ctx, "code", input.Code, id); err != nil {
		return err
	}
	return nil
}

func CreateProvince(ctx context.Context, input *NewProvince) (*Province, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	province := Province{
		Code: input.Code,
		Name: input.Name,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&province).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[Province](""); err != nil {
		return nil, err
	}
	return &province, nil
}

func DeleteProvince(ctx context.Context, id int) (*Province, error) {

	db := config.GetDB()
	var result Province

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	// Do not delete if any Business uses this province
	var count int64
	err = db.WithContext(ctx).Model(&Business{}).Where("province_code = ?", result.Code).Count(&count).Error
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
	return &result, nil
}

func GetProvinces(ctx context.Context) ([]*Province, error) {

	results, err := utils.RetrieveRedisList[Province]("")
	if err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[Province](&results, ""); err != nil {
		return nil, err
	}
	return results, nil
}

func (input *NewWard) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Ward](ctx, "code", input.Code, id); err != nil {
		return err
	}
	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Province{}).Where("code = ?", input.ProvinceCode).Count(&count).Error; err != nil {
		return err
	}
	if count <= 0 {
		return errors.New("province not found")
	}
	return nil
}

func CreateWard(ctx context.Context, input *NewWard) (*Ward, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	ward := Ward{
		Code:         input.Code,
		ProvinceCode: input.ProvinceCode,
		Name:         input.Name,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&ward).Error
	if err != nil {
		return nil, err
	}
	return &ward, nil
}

func DeleteWard(ctx context.Context, id int) (*Ward, error) {

	db := config.GetDB()
	var result Ward

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var count int64
	err = db.WithContext(ctx).Model(&Business{}).Where("ward_code = ?", result.Code).Count(&count).Error
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

	if err := utils.RemoveRedisList[Province](""); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetWards lists wards, optionally scoped to a province.
func GetWards(ctx context.Context, provinceCode *string) ([]*Ward, error) {

	db := config.GetDB()
	var results []*Ward

	dbCtx := db.WithContext(ctx)
	if provinceCode != nil && len(*provinceCode) > 0 {
		dbCtx = dbCtx.Where("province_code = ?", *provinceCode)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
