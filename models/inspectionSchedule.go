package models

import (
	"context"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
)

// InspectionSchedule is one business's inspection slot within a batch.
// Exactly one row exists per (batch, business) pair, created only as part
// of batch creation. BatchName, InspectionDate and CreatedBy are mirrored
// copies of the batch's canonical values; the batch update workflow fans
// new values out so they never drift.
type InspectionSchedule struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	BatchId              int             `gorm:"index;not null" json:"batch_id"`
	BusinessId           uuid.UUID       `gorm:"index;not null" json:"business_id"`
	BatchName            string          `gorm:"size:100;not null" json:"batch_name"`
	InspectionDate       time.Time       `gorm:"not null" json:"inspection_date"`
	CreatedBy            string          `gorm:"size:100" json:"created_by"`
	InspectorDescription string          `gorm:"type:text" json:"inspector_description"`
	InspectorStatus      InspectorStatus `gorm:"type:enum('pending', 'completed', 'cancelled');default:pending" json:"inspector_status"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// inspector-facing update; batch-level fields are not editable here
type InspectionScheduleInput struct {
	InspectorDescription string          `json:"inspector_description"`
	InspectorStatus      InspectorStatus `json:"inspector_status" binding:"required"`
}

func GetInspectionSchedule(ctx context.Context, id int) (*InspectionSchedule, error) {

	var schedule InspectionSchedule
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &schedule, nil
}

func GetInspectionSchedulesByBatch(ctx context.Context, batchId int) ([]*InspectionSchedule, error) {

	db := config.GetDB()
	var results []*InspectionSchedule
	err := db.WithContext(ctx).Where("batch_id = ?", batchId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetInspectionSchedulesByBusiness feeds the business detail view, which
// references schedules independently of the owning batch.
func GetInspectionSchedulesByBusiness(ctx context.Context, businessId uuid.UUID) ([]*InspectionSchedule, error) {

	results, err := utils.RetrieveRedisList[InspectionSchedule](businessId.String())
	if err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Where("business_id = ?", businessId).Order("inspection_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[InspectionSchedule](&results, businessId.String()); err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateInspectionSchedule records the inspector's outcome for one slot.
func UpdateInspectionSchedule(ctx context.Context, id int, input *InspectionScheduleInput) (*InspectionSchedule, error) {

	var schedule InspectionSchedule
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&schedule).Updates(map[string]interface{}{
		"InspectorDescription": input.InspectorDescription,
		"InspectorStatus":      input.InspectorStatus,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisList[InspectionSchedule](schedule.BusinessId.String()); err != nil {
		return nil, err
	}
	return &schedule, nil
}
