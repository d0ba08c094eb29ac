package models

import (
	"context"
	"errors"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ViolationResult is a recorded infraction tied to a report, with payment
// and fix tracking. The inspection/business linkage is denormalized from
// the owning report's schedule so violation lists can be filtered without
// joins.
type ViolationResult struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ReportId        int             `gorm:"index;not null" json:"report_id"`
	InspectionId    int             `gorm:"index;not null" json:"inspection_id"`
	BusinessId      uuid.UUID       `gorm:"index;not null" json:"business_id"`
	ViolationNumber string          `gorm:"size:50;not null" json:"violation_number"`
	IssueDate       time.Time       `json:"issue_date"`
	ViolationStatus ViolationStatus `gorm:"type:enum('pending', 'paid', 'dismissed');default:pending" json:"violation_status"`
	FixStatus       FixStatus       `gorm:"type:enum('not_fixed', 'fixed', 'in_progress');default:not_fixed" json:"fix_status"`
	FineAmount      decimal.Decimal `gorm:"type:decimal(20,2)" json:"fine_amount"`
	OfficerSigned   string          `gorm:"size:100" json:"officer_signed"`
	FileLink        string          `gorm:"size:500" json:"file_link"`
	ViolationType   string          `gorm:"size:100" json:"violation_type"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewViolationResult struct {
	ReportId        int             `json:"report_id" binding:"required"`
	ViolationNumber string          `json:"violation_number" binding:"required"`
	IssueDate       utils.FlexDate  `json:"issue_date" binding:"required"`
	FineAmount      decimal.Decimal `json:"fine_amount"`
	OfficerSigned   string          `json:"officer_signed"`
	FileLink        string          `json:"file_link"`
	ViolationType   string          `json:"violation_type"`
}

type ViolationStatusPatch struct {
	ViolationStatus *ViolationStatus `json:"violation_status"`
	FixStatus       *FixStatus       `json:"fix_status"`
}

// CreateViolationResult records a violation under a report. The inspection
// and business references are stamped from the report's schedule, so the
// chain violation -> report -> schedule -> batch stays consistent.
func CreateViolationResult(ctx context.Context, input *NewViolationResult) (*ViolationResult, error) {

	db := config.GetDB()

	var report InspectionReport
	if err := db.WithContext(ctx).First(&report, input.ReportId).Error; err != nil {
		return nil, errors.New("report not found")
	}
	var schedule InspectionSchedule
	if err := db.WithContext(ctx).First(&schedule, report.InspectionId).Error; err != nil {
		return nil, errors.New("inspection schedule not found")
	}

	violation := ViolationResult{
		ReportId:        report.ID,
		InspectionId:    schedule.ID,
		BusinessId:      schedule.BusinessId,
		ViolationNumber: input.ViolationNumber,
		IssueDate:       input.IssueDate.Time,
		ViolationStatus: ViolationStatusPending,
		FixStatus:       FixStatusNotFixed,
		FineAmount:      input.FineAmount,
		OfficerSigned:   input.OfficerSigned,
		FileLink:        input.FileLink,
		ViolationType:   input.ViolationType,
	}

	err := db.WithContext(ctx).Create(&violation).Error
	if err != nil {
		return nil, err
	}
	return &violation, nil
}

func UpdateViolationStatus(ctx context.Context, id int, patch *ViolationStatusPatch) (*ViolationResult, error) {

	var violation ViolationResult
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&violation, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{}
	if patch.ViolationStatus != nil {
		updates["ViolationStatus"] = *patch.ViolationStatus
	}
	if patch.FixStatus != nil {
		updates["FixStatus"] = *patch.FixStatus
	}
	if len(updates) == 0 {
		return &violation, nil
	}

	err := db.WithContext(ctx).Model(&violation).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return &violation, nil
}

func GetViolationsByReport(ctx context.Context, reportId int) ([]*ViolationResult, error) {

	db := config.GetDB()
	var results []*ViolationResult
	err := db.WithContext(ctx).Where("report_id = ?", reportId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetViolationsByBusiness(ctx context.Context, businessId uuid.UUID) ([]*ViolationResult, error) {

	db := config.GetDB()
	var results []*ViolationResult
	err := db.WithContext(ctx).Where("business_id = ?", businessId).Order("issue_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
