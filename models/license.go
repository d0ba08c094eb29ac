package models

import (
	"context"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type License struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    uuid.UUID       `gorm:"index;not null" json:"business_id"`
	LicenseNumber string          `gorm:"uniqueIndex;size:50;not null" json:"license_number"`
	LicenseType   string          `gorm:"size:100;not null" json:"license_type"`
	IssueDate     time.Time       `json:"issue_date"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	Fee           decimal.Decimal `gorm:"type:decimal(20,2)" json:"fee"`
	Status        LicenseStatus   `gorm:"type:enum('valid', 'expired', 'revoked');default:valid" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLicense struct {
	BusinessId    uuid.UUID       `json:"business_id" binding:"required"`
	LicenseNumber string          `json:"license_number" binding:"required"`
	LicenseType   string          `json:"license_type" binding:"required"`
	IssueDate     utils.FlexDate  `json:"issue_date" binding:"required"`
	ExpiryDate    utils.FlexDate  `json:"expiry_date" binding:"required"`
	Fee           decimal.Decimal `json:"fee"`
	Status        LicenseStatus   `json:"status"`
}

func (input *NewLicense) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[License](ctx, "license_number", input.LicenseNumber, id); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Business](ctx, input.BusinessId); err != nil {
		return err
	}
	return nil
}

func CreateLicense(ctx context.Context, input *NewLicense) (*License, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = LicenseStatusValid
	}

	license := License{
		BusinessId:    input.BusinessId,
		LicenseNumber: input.LicenseNumber,
		LicenseType:   input.LicenseType,
		IssueDate:     input.IssueDate.Time,
		ExpiryDate:    input.ExpiryDate.Time,
		Fee:           input.Fee,
		Status:        status,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&license).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[License](license.BusinessId.String()); err != nil {
		return nil, err
	}
	return &license, nil
}

func UpdateLicense(ctx context.Context, id int, input *NewLicense) (*License, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var license License
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&license, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{
		"LicenseNumber": input.LicenseNumber,
		"LicenseType":   input.LicenseType,
		"IssueDate":     input.IssueDate.Time,
		"ExpiryDate":    input.ExpiryDate.Time,
		"Fee":           input.Fee,
	}
	if input.Status != "" {
		updates["Status"] = input.Status
	}
	err := db.WithContext(ctx).Model(&license).Updates(updates).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[License](license.BusinessId.String()); err != nil {
		return nil, err
	}
	return &license, nil
}

func DeleteLicense(ctx context.Context, id int) (*License, error) {

	db := config.GetDB()
	var result License

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[License](result.BusinessId.String()); err != nil {
		return nil, err
	}
	return &result, nil
}

func GetLicensesByBusiness(ctx context.Context, businessId uuid.UUID) ([]*License, error) {

	results, err := utils.RetrieveRedisList[License](businessId.String())
	if err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Where("business_id = ?", businessId).Order("expiry_date").Find(&results).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[License](&results, businessId.String()); err != nil {
		return nil, err
	}
	return results, nil
}

// GetExpiringLicenses lists valid licenses expiring within the given number
// of days, for the compliance dashboard.
func GetExpiringLicenses(ctx context.Context, withinDays int) ([]*License, error) {

	db := config.GetDB()
	var results []*License

	deadline := time.Now().AddDate(0, 0, withinDays)
	err := db.WithContext(ctx).
		Where("status = ? AND expiry_date <= ?", LicenseStatusValid, deadline).
		Order("expiry_date").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
