package models

import (
	"context"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
)

// InspectionReport is a write-up produced after a schedule is carried out.
// Zero or more exist per schedule; inspectors create them later, never at
// batch-creation time.
type InspectionReport struct {
	ID                int          `gorm:"primary_key" json:"id"`
	InspectionId      int          `gorm:"index;not null" json:"inspection_id"`
	ReportDescription string       `gorm:"type:text;not null" json:"report_description"`
	ReportStatus      ReportStatus `gorm:"type:enum('draft', 'finalized');default:draft" json:"report_status"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInspectionReport struct {
	InspectionId      int          `json:"inspection_id" binding:"required"`
	ReportDescription string       `json:"report_description" binding:"required"`
	ReportStatus      ReportStatus `json:"report_status"`
}

func CreateInspectionReport(ctx context.Context, input *NewInspectionReport) (*InspectionReport, error) {

	if err := utils.ValidateResourceId[InspectionSchedule](ctx, input.InspectionId); err != nil {
		return nil, err
	}

	status := input.ReportStatus
	if status == "" {
		status = ReportStatusDraft
	}

	report := InspectionReport{
		InspectionId:      input.InspectionId,
		ReportDescription: input.ReportDescription,
		ReportStatus:      status,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func UpdateInspectionReport(ctx context.Context, id int, input *NewInspectionReport) (*InspectionReport, error) {

	var report InspectionReport
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{
		"ReportDescription": input.ReportDescription,
	}
	if input.ReportStatus != "" {
		updates["ReportStatus"] = input.ReportStatus
	}
	err := db.WithContext(ctx).Model(&report).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func GetInspectionReportsBySchedule(ctx context.Context, inspectionId int) ([]*InspectionReport, error) {

	db := config.GetDB()
	var results []*InspectionReport
	err := db.WithContext(ctx).Where("inspection_id = ?", inspectionId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
