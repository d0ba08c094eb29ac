package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/middlewares"
	"github.com/dtsgroup/bizreg_backend/models"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/dtsgroup/bizreg_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter throttles per client IP using a redis counter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pathInt(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a valid uuid"})
		return uuid.Nil, false
	}
	return id, true
}

func queryPtr(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryIntPtr(c *gin.Context, name string) *int {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// bindingErrorMessage flattens validator failures into one readable line
// instead of the struct-path dump the library produces by default.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// writeError maps domain errors onto HTTP statuses. Not-found stays 404,
// validation and workflow guard failures are 400, lock contention is 409.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrEmptyCohort), errors.Is(err, workflow.ErrMissingBatchData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "being modified by another request"):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		token, user, err := models.Login(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func createBatchRequestHandler() gin.HandlerFunc {
	type createBatchRequest struct {
		models.NewInspectionBatch
		BusinessIds []uuid.UUID `json:"business_ids"`
	}
	return func(c *gin.Context) {
		var req createBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}

		ctx := c.Request.Context()
		businessIds := req.BusinessIds
		if len(businessIds) == 0 {
			// No explicit cohort: snapshot it from the batch filter now.
			ids, err := models.GetBusinessIdsByFilter(ctx, req.IndustryId, req.ProvinceCode, req.WardCodes)
			if err != nil {
				writeError(c, err)
				return
			}
			businessIds = ids
		}

		batch, err := workflow.CreateInspectionBatch(ctx, &req.NewInspectionBatch, businessIds)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"batch":          batch,
			"schedule_count": len(businessIds),
			"correlation_id": utils.CorrelationIdOrEmpty(ctx),
		})
	}
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.POST("/login", loginHandler())

	auth := api.Group("")
	auth.Use(middlewares.RequireAuth())

	// Reference data.
	auth.GET("/provinces", func(c *gin.Context) {
		provinces, err := models.GetProvinces(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, provinces)
	})
	auth.GET("/wards", func(c *gin.Context) {
		wards, err := models.GetWards(c.Request.Context(), queryPtr(c, "province_code"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, wards)
	})
	auth.GET("/industries", func(c *gin.Context) {
		industries, err := models.GetIndustries(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, industries)
	})
	auth.GET("/industries/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		industry, err := models.GetIndustry(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, industry)
	})

	admin := auth.Group("")
	admin.Use(middlewares.RequireAdmin())
	admin.POST("/provinces", func(c *gin.Context) {
		var input models.NewProvince
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		province, err := models.CreateProvince(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, province)
	})
	admin.DELETE("/provinces/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		province, err := models.DeleteProvince(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, province)
	})
	admin.POST("/wards", func(c *gin.Context) {
		var input models.NewWard
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		ward, err := models.CreateWard(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ward)
	})
	admin.DELETE("/wards/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		ward, err := models.DeleteWard(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ward)
	})
	admin.POST("/industries", func(c *gin.Context) {
		var input models.NewIndustry
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		industry, err := models.CreateIndustry(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, industry)
	})
	admin.PUT("/industries/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var input models.NewIndustry
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		industry, err := models.UpdateIndustry(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, industry)
	})
	admin.DELETE("/industries/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		industry, err := models.DeleteIndustry(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, industry)
	})

	// Staff users (admin only).
	admin.POST("/users", func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	})
	admin.GET("/users", func(c *gin.Context) {
		users, err := models.GetUsers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	})
	admin.PUT("/users/:id/active", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var body struct {
			IsActive *bool `json:"is_active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		user, err := models.ToggleActiveUser(c.Request.Context(), id, *body.IsActive)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	})

	// Business registry.
	auth.POST("/businesses", func(c *gin.Context) {
		var input models.NewBusiness
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		business, err := models.CreateBusiness(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, business)
	})
	auth.GET("/businesses", func(c *gin.Context) {
		businesses, err := models.GetBusinesses(c.Request.Context(),
			queryIntPtr(c, "industry_id"), queryPtr(c, "province_code"),
			queryPtr(c, "ward_code"), queryPtr(c, "status"), queryPtr(c, "name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, businesses)
	})
	auth.GET("/businesses/page", func(c *gin.Context) {
		page, err := models.PaginateBusiness(c.Request.Context(),
			queryIntPtr(c, "limit"), queryPtr(c, "after"),
			queryIntPtr(c, "industry_id"), queryPtr(c, "province_code"),
			queryPtr(c, "ward_code"), queryPtr(c, "name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	})
	// Cohort preview: the ids a batch created with this filter would cover.
	auth.GET("/businesses/cohort", func(c *gin.Context) {
		industryId := 0
		if v := queryIntPtr(c, "industry_id"); v != nil {
			industryId = *v
		}
		provinceCode := strings.TrimSpace(c.Query("province_code"))
		wardCodes := splitAndTrim(c.Query("ward_codes"))
		ids, err := models.GetBusinessIdsByFilter(c.Request.Context(), industryId, provinceCode, wardCodes)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"business_ids": ids, "count": len(ids)})
	})
	auth.GET("/businesses/:id", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		business, err := models.GetBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, business)
	})
	auth.PUT("/businesses/:id", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		var input models.NewBusiness
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		business, err := models.UpdateBusiness(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, business)
	})
	auth.DELETE("/businesses/:id", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		business, err := models.DeleteBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, business)
	})

	// Licenses.
	auth.POST("/licenses", func(c *gin.Context) {
		var input models.NewLicense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		license, err := models.CreateLicense(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, license)
	})
	auth.PUT("/licenses/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var input models.NewLicense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		license, err := models.UpdateLicense(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	})
	auth.DELETE("/licenses/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		license, err := models.DeleteLicense(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, license)
	})
	auth.GET("/licenses/expiring", func(c *gin.Context) {
		withinDays := 30
		if v := queryIntPtr(c, "within_days"); v != nil && *v > 0 {
			withinDays = *v
		}
		licenses, err := models.GetExpiringLicenses(c.Request.Context(), withinDays)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, licenses)
	})
	auth.GET("/businesses/:id/licenses", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		licenses, err := models.GetLicensesByBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, licenses)
	})

	// Employees.
	auth.POST("/employees", func(c *gin.Context) {
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		employee, err := models.CreateEmployee(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, employee)
	})
	auth.PUT("/employees/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		employee, err := models.UpdateEmployee(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, employee)
	})
	auth.DELETE("/employees/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		employee, err := models.DeleteEmployee(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, employee)
	})
	auth.GET("/businesses/:id/employees", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		employees, err := models.GetEmployeesByBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, employees)
	})

	// Inspection batches.
	auth.POST("/inspection-batches", createBatchRequestHandler())
	auth.GET("/inspection-batches", func(c *gin.Context) {
		batches, err := models.GetInspectionBatches(c.Request.Context(),
			queryPtr(c, "status"), queryPtr(c, "province_code"), queryPtr(c, "name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batches)
	})
	auth.GET("/inspection-batches/page", func(c *gin.Context) {
		page, err := models.PaginateInspectionBatch(c.Request.Context(),
			queryIntPtr(c, "limit"), queryPtr(c, "after"),
			queryPtr(c, "status"), queryPtr(c, "name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	})
	auth.GET("/inspection-batches/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		batch, err := models.GetInspectionBatch(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	})
	auth.PUT("/inspection-batches/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var patch models.InspectionBatchPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		batch, err := workflow.UpdateInspectionBatch(c.Request.Context(), id, &patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	})
	auth.DELETE("/inspection-batches/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		if err := workflow.DeleteInspectionBatchCascade(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"deleted":        true,
			"batch_id":       id,
			"correlation_id": utils.CorrelationIdOrEmpty(c.Request.Context()),
		})
	})
	auth.GET("/inspection-batches/:id/stats", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		stats, err := workflow.GetInspectionStats(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
	auth.GET("/inspection-batches/:id/violation-stats", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		stats, err := workflow.GetViolationStats(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
	auth.GET("/inspection-batches/:id/schedules", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		schedules, err := models.GetInspectionSchedulesByBatch(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedules)
	})

	// Inspection schedules.
	auth.GET("/inspection-schedules/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		schedule, err := models.GetInspectionSchedule(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	})
	auth.PUT("/inspection-schedules/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var input models.InspectionScheduleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		schedule, err := models.UpdateInspectionSchedule(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	})
	auth.GET("/businesses/:id/schedules", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		schedules, err := models.GetInspectionSchedulesByBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedules)
	})

	// Inspection reports.
	auth.POST("/inspection-reports", func(c *gin.Context) {
		var input models.NewInspectionReport
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		report, err := models.CreateInspectionReport(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, report)
	})
	auth.PUT("/inspection-reports/:id", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var input models.NewInspectionReport
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		report, err := models.UpdateInspectionReport(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})
	auth.GET("/inspection-schedules/:id/reports", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		reports, err := models.GetInspectionReportsBySchedule(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, reports)
	})

	// Violations.
	auth.POST("/violations", func(c *gin.Context) {
		var input models.NewViolationResult
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		violation, err := models.CreateViolationResult(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, violation)
	})
	auth.PUT("/violations/:id/status", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		var patch models.ViolationStatusPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		violation, err := models.UpdateViolationStatus(c.Request.Context(), id, &patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, violation)
	})
	auth.GET("/inspection-reports/:id/violations", func(c *gin.Context) {
		id, ok := pathInt(c, "id")
		if !ok {
			return
		}
		violations, err := models.GetViolationsByReport(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, violations)
	})
	auth.GET("/businesses/:id/violations", func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		violations, err := models.GetViolationsByBusiness(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, violations)
	})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on database readiness. Redis is optional:
		// caches and locks degrade to no-ops without it.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api/v1")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
