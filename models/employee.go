package models

import (
	"context"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
)

type Employee struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId uuid.UUID `gorm:"index;not null" json:"business_id"`
	FullName   string    `gorm:"size:100;not null" json:"full_name"`
	Position   string    `gorm:"size:100" json:"position"`
	IdNumber   string    `gorm:"size:20" json:"id_number"`
	StartDate  time.Time `json:"start_date"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	BusinessId uuid.UUID      `json:"business_id" binding:"required"`
	FullName   string         `json:"full_name" binding:"required"`
	Position   string         `json:"position"`
	IdNumber   string         `json:"id_number"`
	StartDate  utils.FlexDate `json:"start_date"`
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	if err := utils.ValidateResourceId[Business](ctx, input.BusinessId); err != nil {
		return nil, err
	}

	employee := Employee{
		BusinessId: input.BusinessId,
		FullName:   input.FullName,
		Position:   input.Position,
		IdNumber:   input.IdNumber,
		StartDate:  input.StartDate.Time,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&employee).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[Employee](employee.BusinessId.String()); err != nil {
		return nil, err
	}
	return &employee, nil
}

func UpdateEmployee(ctx context.Context, id int, input *NewEmployee) (*Employee, error) {

	var employee Employee
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&employee).Updates(map[string]interface{}{
		"FullName":  input.FullName,
		"Position":  input.Position,
		"IdNumber":  input.IdNumber,
		"StartDate": input.StartDate.Time,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[Employee](employee.BusinessId.String()); err != nil {
		return nil, err
	}
	return &employee, nil
}

func DeleteEmployee(ctx context.Context, id int) (*Employee, error) {

	db := config.GetDB()
	var result Employee

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[Employee](result.BusinessId.String()); err != nil {
		return nil, err
	}
	return &result, nil
}

func GetEmployeesByBusiness(ctx context.Context, businessId uuid.UUID) ([]*Employee, error) {

	results, err := utils.RetrieveRedisList[Employee](businessId.String())
	if err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Where("business_id = ?", businessId).Order("full_name").Find(&results).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[Employee](&results, businessId.String()); err != nil {
		return nil, err
	}
	return results, nil
}
