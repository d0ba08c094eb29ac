package models

import (
	"context"
	"strings"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/utils"
)

// InspectionBatch is a named, dated cohort of businesses selected for
// inspection together. The cohort filter (industry/province/wards) is a
// snapshot taken at creation time; later changes to a business do not move
// it in or out of the batch.
type InspectionBatch struct {
	ID           int         `gorm:"primary_key" json:"id"`
	Name         string      `gorm:"index;size:100;not null" json:"name"`
	BatchDate    time.Time   `gorm:"not null" json:"batch_date"`
	Description  string      `gorm:"type:text" json:"description"`
	IndustryId   int         `gorm:"index" json:"industry_id"`
	ProvinceCode string      `gorm:"size:10" json:"province_code"`
	WardCodes    string      `gorm:"size:255" json:"ward_codes"`
	Status       BatchStatus `gorm:"type:enum('scheduled', 'ongoing', 'completed');default:scheduled" json:"status"`
	CreatedBy    string      `gorm:"size:100;not null" json:"created_by"`
	Note         string      `gorm:"type:text" json:"note"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInspectionBatch struct {
	Name         string         `json:"name" binding:"required"`
	BatchDate    utils.FlexDate `json:"batch_date" binding:"required"`
	Description  string         `json:"description" binding:"required"`
	IndustryId   int            `json:"industry_id"`
	ProvinceCode string         `json:"province_code"`
	WardCodes    []string       `json:"ward_codes"`
	Status       BatchStatus    `json:"status"`
	CreatedBy    string         `json:"created_by" binding:"required"`
	Note         string         `json:"note"`
}

// InspectionBatchPatch carries the mutable batch-level fields. Nil fields
// are left untouched; set fields fan out to every linked schedule's
// mirrored copy in the same write.
type InspectionBatchPatch struct {
	Name        *string         `json:"name"`
	BatchDate   *utils.FlexDate `json:"batch_date"`
	Description *string         `json:"description"`
	CreatedBy   *string         `json:"created_by"`
	Status      *BatchStatus    `json:"status"`
	Note        *string         `json:"note"`
}

func (p *InspectionBatchPatch) IsEmpty() bool {
	return p.Name == nil && p.BatchDate == nil && p.Description == nil &&
		p.CreatedBy == nil && p.Status == nil && p.Note == nil
}

type InspectionBatchesEdge Edge[InspectionBatch]
type InspectionBatchesConnection struct {
	PageInfo *PageInfo                `json:"pageInfo"`
	Edges    []*InspectionBatchesEdge `json:"edges"`
}

func (b InspectionBatch) GetCursor() string {
	return b.Name
}

func JoinWardCodes(wardCodes []string) string {
	return strings.Join(wardCodes, ",")
}

func GetInspectionBatch(ctx context.Context, id int) (*InspectionBatch, error) {

	result, err := utils.RetrieveRedis[InspectionBatch](id)
	if err != nil {
		return nil, err
	}

	if result == nil {
		db := config.GetDB()
		err := db.WithContext(ctx).First(&result, id).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if err := utils.StoreRedis[InspectionBatch](result, id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func GetInspectionBatches(ctx context.Context, status *string, provinceCode *string, name *string) ([]*InspectionBatch, error) {

	db := config.GetDB()
	var results []*InspectionBatch

	dbCtx := db.WithContext(ctx)
	if status != nil && len(*status) > 0 {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if provinceCode != nil && len(*provinceCode) > 0 {
		dbCtx = dbCtx.Where("province_code = ?", *provinceCode)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("batch_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateInspectionBatch(ctx context.Context, limit *int, after *string, status *string, name *string) (*InspectionBatchesConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&InspectionBatch{})

	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}
	if name != nil && *name != "" {
		dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	edges, pageInfo, err := FetchPagePureCursor[InspectionBatch](dbCtx, pageLimit(limit), after, "name", ">")
	if err != nil {
		return nil, err
	}
	var connection InspectionBatchesConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		batchEdge := InspectionBatchesEdge(edge)
		connection.Edges = append(connection.Edges, &batchEdge)
	}
	return &connection, err
}
