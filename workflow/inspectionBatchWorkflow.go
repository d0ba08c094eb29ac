package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/models"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Inspection batch orchestration.
//
// A batch fans out into one schedule per cohort business at creation time,
// mirrored batch fields propagate to every schedule on update, and delete
// cascades leaves-first through violations -> reports -> schedules -> batch.
// Every multi-row write runs in a single transaction so readers never see
// a batch with a partial subset of schedules.

var (
	ErrEmptyCohort      = errors.New("batch requires at least one business")
	ErrMissingBatchData = errors.New("batch name, description, date and creator are required")
)

type InspectionStats struct {
	Total   int64 `json:"total"`
	Checked int64 `json:"checked"`
}

type ViolationStats struct {
	Violated    int64 `json:"violated"`
	NonViolated int64 `json:"non_violated"`
}

// CreateInspectionBatch writes the batch row and one schedule per business
// id atomically. businessIds is the cohort snapshot computed by the caller
// at submission time; an empty cohort is rejected before any write.
func CreateInspectionBatch(ctx context.Context, input *models.NewInspectionBatch, businessIds []uuid.UUID) (*models.InspectionBatch, error) {
	logger := config.GetLogger()

	if len(businessIds) == 0 {
		return nil, ErrEmptyCohort
	}
	if input.Name == "" || input.Description == "" || input.CreatedBy == "" || input.BatchDate.IsZero() {
		return nil, ErrMissingBatchData
	}

	businessIds = utils.UniqueSlice(businessIds)
	if err := utils.ValidateResourcesId[models.Business](ctx, businessIds); err != nil {
		config.LogError(logger, "inspectionBatchWorkflow.go", "CreateInspectionBatch", "ValidateBusinessIds", businessIds, err)
		return nil, errors.New("business not found")
	}

	status := input.Status
	if status == "" {
		status = models.BatchStatusScheduled
	}
	batchDate, err := utils.ConvertToDate(input.BatchDate.Time, "")
	if err != nil {
		return nil, err
	}

	batch := models.InspectionBatch{
		Name:         input.Name,
		BatchDate:    batchDate,
		Description:  input.Description,
		IndustryId:   input.IndustryId,
		ProvinceCode: input.ProvinceCode,
		WardCodes:    models.JoinWardCodes(input.WardCodes),
		Status:       status,
		CreatedBy:    input.CreatedBy,
		Note:         input.Note,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "CreateInspectionBatch", "CreateBatch", batch, err)
			return err
		}

		schedules := make([]models.InspectionSchedule, 0, len(businessIds))
		for _, businessId := range businessIds {
			schedules = append(schedules, models.InspectionSchedule{
				BatchId:         batch.ID,
				BusinessId:      businessId,
				BatchName:       batch.Name,
				InspectionDate:  batch.BatchDate,
				CreatedBy:       batch.CreatedBy,
				InspectorStatus: models.InspectorStatusPending,
			})
		}
		if err := tx.Create(&schedules).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "CreateInspectionBatch", "CreateSchedules", len(schedules), err)
			return err
		}
		return nil
	})
	if err != nil {
		notify(NotificationError, "Inspection Batch", "failed to create batch "+input.Name)
		return nil, err
	}

	touched := invalidateBatchCaches(batch.ID, businessIds)
	logger.WithFields(logrus.Fields{"field": "cache", "keys": touched}).Debug("invalidated after batch create")
	notify(NotificationSuccess, "Inspection Batch", fmt.Sprintf("batch %s created with %d schedules", batch.Name, len(businessIds)))
	return &batch, nil
}

// GetInspectionStats returns schedule counts for a batch. An absent batch
// or one with no schedules yields zero-valued stats, not an error; "no
// batch selected" is a valid displayable state.
func GetInspectionStats(ctx context.Context, batchId int) (*InspectionStats, error) {
	stats := &InspectionStats{}
	if batchId <= 0 {
		return stats, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&models.InspectionSchedule{}).
		Where("batch_id = ?", batchId).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if stats.Total == 0 {
		return stats, nil
	}
	if err := db.WithContext(ctx).Model(&models.InspectionSchedule{}).
		Where("batch_id = ? AND inspector_status = ?", batchId, models.InspectorStatusCompleted).
		Count(&stats.Checked).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// GetViolationStats counts distinct businesses in a batch that have at
// least one violation traced through schedule -> report -> violation.
// A business with several violations counts once.
func GetViolationStats(ctx context.Context, batchId int) (*ViolationStats, error) {
	stats := &ViolationStats{}
	if batchId <= 0 {
		return stats, nil
	}

	db := config.GetDB()
	var total int64
	if err := db.WithContext(ctx).Model(&models.InspectionSchedule{}).
		Where("batch_id = ?", batchId).Count(&total).Error; err != nil {
		return nil, err
	}
	if total == 0 {
		return stats, nil
	}

	var violated int64
	if err := db.WithContext(ctx).Model(&models.ViolationResult{}).
		Where("inspection_id IN (?)", db.Model(&models.InspectionSchedule{}).
			Select("id").Where("batch_id = ?", batchId)).
		Distinct("business_id").Count(&violated).Error; err != nil {
		return nil, err
	}

	stats.Violated = violated
	stats.NonViolated = total - violated
	return stats, nil
}

// UpdateInspectionBatch applies a patch to the batch row and fans the
// mirrored display fields (name, date, creator) out to every linked
// schedule in the same transaction, so schedule copies never drift.
// Status values are accepted as-is; scheduled -> ongoing -> completed
// ordering is not enforced here.
func UpdateInspectionBatch(ctx context.Context, batchId int, patch *models.InspectionBatchPatch) (*models.InspectionBatch, error) {
	logger := config.GetLogger()

	release, err := AcquireBatchLock(ctx, batchId, "UpdateInspectionBatch")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	var batch models.InspectionBatch
	if err := db.WithContext(ctx).First(&batch, batchId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if patch.IsEmpty() {
		return &batch, nil
	}
	if (patch.Name != nil && *patch.Name == "") ||
		(patch.Description != nil && *patch.Description == "") ||
		(patch.CreatedBy != nil && *patch.CreatedBy == "") ||
		(patch.BatchDate != nil && patch.BatchDate.IsZero()) {
		return nil, ErrMissingBatchData
	}

	batchUpdates := map[string]interface{}{}
	scheduleUpdates := map[string]interface{}{}
	if patch.Name != nil {
		batchUpdates["Name"] = *patch.Name
		scheduleUpdates["BatchName"] = *patch.Name
	}
	if patch.BatchDate != nil {
		batchDate, err := utils.ConvertToDate(patch.BatchDate.Time, "")
		if err != nil {
			return nil, err
		}
		batchUpdates["BatchDate"] = batchDate
		scheduleUpdates["InspectionDate"] = batchDate
	}
	if patch.Description != nil {
		batchUpdates["Description"] = *patch.Description
	}
	if patch.CreatedBy != nil {
		batchUpdates["CreatedBy"] = *patch.CreatedBy
		scheduleUpdates["CreatedBy"] = *patch.CreatedBy
	}
	if patch.Status != nil {
		batchUpdates["Status"] = *patch.Status
	}
	if patch.Note != nil {
		batchUpdates["Note"] = *patch.Note
	}

	businessIds, err := batchBusinessIds(ctx, batchId)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&batch).Updates(batchUpdates).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "UpdateInspectionBatch", "UpdateBatch", batchUpdates, err)
			return err
		}
		if len(scheduleUpdates) > 0 {
			if err := tx.Model(&models.InspectionSchedule{}).
				Where("batch_id = ?", batchId).Updates(scheduleUpdates).Error; err != nil {
				config.LogError(logger, "inspectionBatchWorkflow.go", "UpdateInspectionBatch", "UpdateSchedules", scheduleUpdates, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		notify(NotificationError, "Inspection Batch", "failed to update batch "+batch.Name)
		return nil, err
	}

	touched := invalidateBatchCaches(batchId, businessIds)
	logger.WithFields(logrus.Fields{"field": "cache", "keys": touched}).Debug("invalidated after batch update")
	notify(NotificationSuccess, "Inspection Batch", "batch "+batch.Name+" updated")
	return &batch, nil
}

// DeleteInspectionBatchCascade removes everything reachable from a batch,
// leaves first: violations under its schedules' reports, then reports,
// then schedules, then the batch row. Absent rows delete zero rows, so a
// retry after a partial failure makes forward progress without erroring.
func DeleteInspectionBatchCascade(ctx context.Context, batchId int) error {
	logger := config.GetLogger()

	release, err := AcquireBatchLock(ctx, batchId, "DeleteInspectionBatchCascade")
	if err != nil {
		return err
	}
	defer release()

	businessIds, err := batchBusinessIds(ctx, batchId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scheduleIds := tx.Model(&models.InspectionSchedule{}).
			Select("id").Where("batch_id = ?", batchId)

		if err := tx.Where("inspection_id IN (?)", scheduleIds).
			Delete(&models.ViolationResult{}).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "DeleteInspectionBatchCascade", "DeleteViolations", batchId, err)
			return err
		}
		if err := tx.Where("inspection_id IN (?)", scheduleIds).
			Delete(&models.InspectionReport{}).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "DeleteInspectionBatchCascade", "DeleteReports", batchId, err)
			return err
		}
		if err := tx.Where("batch_id = ?", batchId).
			Delete(&models.InspectionSchedule{}).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "DeleteInspectionBatchCascade", "DeleteSchedules", batchId, err)
			return err
		}
		if err := tx.Delete(&models.InspectionBatch{}, batchId).Error; err != nil {
			config.LogError(logger, "inspectionBatchWorkflow.go", "DeleteInspectionBatchCascade", "DeleteBatch", batchId, err)
			return err
		}
		return nil
	})
	if err != nil {
		notify(NotificationError, "Inspection Batch", fmt.Sprintf("failed to delete batch %d", batchId))
		return err
	}

	touched := invalidateBatchCaches(batchId, businessIds)
	logger.WithFields(logrus.Fields{"field": "cache", "keys": touched}).Debug("invalidated after batch delete")
	notify(NotificationSuccess, "Inspection Batch", fmt.Sprintf("batch %d and linked data deleted", batchId))
	return nil
}

func batchBusinessIds(ctx context.Context, batchId int) ([]uuid.UUID, error) {
	db := config.GetDB()
	var ids []uuid.UUID
	if err := db.WithContext(ctx).Model(&models.InspectionSchedule{}).
		Where("batch_id = ?", batchId).Pluck("business_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// invalidateBatchCaches clears every cached view a batch mutation touches:
// the batch list, the batch item, and the schedule list of each business
// in the cohort. Returns the cleared keys for logging.
func invalidateBatchCaches(batchId int, businessIds []uuid.UUID) []string {
	touched := make([]string, 0, len(businessIds)+2)

	if err := utils.RemoveRedisList[models.InspectionBatch](""); err == nil {
		touched = append(touched, "InspectionBatchList")
	}
	if err := utils.RemoveRedisItem[models.InspectionBatch](batchId); err == nil {
		touched = append(touched, fmt.Sprintf("InspectionBatch:%d", batchId))
	}
	for _, businessId := range businessIds {
		if err := utils.RemoveRedisList[models.InspectionSchedule](businessId.String()); err == nil {
			touched = append(touched, "InspectionScheduleList:"+businessId.String())
		}
	}
	return touched
}
