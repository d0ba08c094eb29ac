package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/dtsgroup/bizreg_backend/models"
	"github.com/dtsgroup/bizreg_backend/utils"
	"github.com/dtsgroup/bizreg_backend/workflow"
	"github.com/google/uuid"
)

// Regression: the full batch lifecycle against real MySQL + Redis.
// Create fans out one schedule per business, stats follow inspector
// progress, violation stats count distinct businesses, updates mirror
// onto schedules, and delete cascades leaves-first and stays idempotent.
func TestInspectionBatchLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "bizreg_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	// Reference data.
	province, err := models.CreateProvince(ctx, &models.NewProvince{Code: "79", Name: "Ho Chi Minh"})
	if err != nil {
		t.Fatalf("CreateProvince: %v", err)
	}
	ward, err := models.CreateWard(ctx, &models.NewWard{Code: "79-01", ProvinceCode: province.Code, Name: "Ben Nghe"})
	if err != nil {
		t.Fatalf("CreateWard: %v", err)
	}
	industry, err := models.CreateIndustry(ctx, &models.NewIndustry{Name: "Food Service"})
	if err != nil {
		t.Fatalf("CreateIndustry: %v", err)
	}

	// The province list is redis-cached; create and delete must both show
	// through on the next read, not serve the stale cached list.
	provinces, err := models.GetProvinces(ctx)
	if err != nil {
		t.Fatalf("GetProvinces: %v", err)
	}
	if len(provinces) != 1 {
		t.Fatalf("expected 1 province, got %d", len(provinces))
	}
	second, err := models.CreateProvince(ctx, &models.NewProvince{Code: "80", Name: "Long An"})
	if err != nil {
		t.Fatalf("CreateProvince (second): %v", err)
	}
	provinces, err = models.GetProvinces(ctx)
	if err != nil {
		t.Fatalf("GetProvinces after create: %v", err)
	}
	if len(provinces) != 2 {
		t.Fatalf("new province missing from cached list: got %d provinces", len(provinces))
	}
	if _, err := models.DeleteProvince(ctx, second.ID); err != nil {
		t.Fatalf("DeleteProvince: %v", err)
	}
	provinces, err = models.GetProvinces(ctx)
	if err != nil {
		t.Fatalf("GetProvinces after delete: %v", err)
	}
	if len(provinces) != 1 {
		t.Fatalf("deleted province still in cached list: got %d provinces", len(provinces))
	}

	// Three registered businesses in the cohort.
	businessIds := make([]uuid.UUID, 0, 3)
	for i := 1; i <= 3; i++ {
		biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
			Name:               fmt.Sprintf("Pho House %d", i),
			RegistrationNumber: fmt.Sprintf("REG-%03d", i),
			OwnerName:          "Nguyen Van A",
			IndustryId:         industry.ID,
			ProvinceCode:       province.Code,
			WardCode:           ward.Code,
		})
		if err != nil {
			t.Fatalf("CreateBusiness %d: %v", i, err)
		}
		businessIds = append(businessIds, biz.ID)
	}

	// Cohort query must match all three active businesses.
	cohort, err := models.GetBusinessIdsByFilter(ctx, industry.ID, province.Code, []string{ward.Code})
	if err != nil {
		t.Fatalf("GetBusinessIdsByFilter: %v", err)
	}
	if len(cohort) != 3 {
		t.Fatalf("expected cohort of 3, got %d", len(cohort))
	}

	batchDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	batch, err := workflow.CreateInspectionBatch(ctx, &models.NewInspectionBatch{
		Name:         "Q3 Food Safety",
		BatchDate:    utils.FlexDate{Time: batchDate},
		Description:  "Quarterly food safety sweep",
		IndustryId:   industry.ID,
		ProvinceCode: province.Code,
		WardCodes:    []string{ward.Code},
		CreatedBy:    "officer.tran",
	}, cohort)
	if err != nil {
		t.Fatalf("CreateInspectionBatch: %v", err)
	}

	schedules, err := models.GetInspectionSchedulesByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionSchedulesByBatch: %v", err)
	}
	if len(schedules) != 3 {
		t.Fatalf("expected 3 schedules, got %d", len(schedules))
	}
	for _, s := range schedules {
		if s.BatchName != batch.Name {
			t.Fatalf("schedule %d mirrors name %q, want %q", s.ID, s.BatchName, batch.Name)
		}
		if s.InspectorStatus != models.InspectorStatusPending {
			t.Fatalf("schedule %d starts as %q, want pending", s.ID, s.InspectorStatus)
		}
	}

	stats, err := workflow.GetInspectionStats(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionStats: %v", err)
	}
	if stats.Total != 3 || stats.Checked != 0 {
		t.Fatalf("fresh batch stats = %+v, want {3 0}", stats)
	}

	// Inspector completes the first slot.
	if _, err := models.UpdateInspectionSchedule(ctx, schedules[0].ID, &models.InspectionScheduleInput{
		InspectorDescription: "No issues found",
		InspectorStatus:      models.InspectorStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateInspectionSchedule: %v", err)
	}
	stats, err = workflow.GetInspectionStats(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionStats after completion: %v", err)
	}
	if stats.Total != 3 || stats.Checked != 1 {
		t.Fatalf("stats after one completion = %+v, want {3 1}", stats)
	}

	// A report with two violations on one business: it counts once.
	report, err := models.CreateInspectionReport(ctx, &models.NewInspectionReport{
		InspectionId:      schedules[0].ID,
		ReportDescription: "Expired cold storage certificate",
	})
	if err != nil {
		t.Fatalf("CreateInspectionReport: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if _, err := models.CreateViolationResult(ctx, &models.NewViolationResult{
			ReportId:        report.ID,
			ViolationNumber: fmt.Sprintf("VIO-%03d", i),
			IssueDate:       utils.FlexDate{Time: batchDate},
			ViolationType:   "hygiene",
		}); err != nil {
			t.Fatalf("CreateViolationResult %d: %v", i, err)
		}
	}
	vStats, err := workflow.GetViolationStats(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetViolationStats: %v", err)
	}
	if vStats.Violated != 1 || vStats.NonViolated != 2 {
		t.Fatalf("violation stats = %+v, want {1 2}", vStats)
	}

	// Batch update mirrors name and date onto every schedule.
	newName := "Q3 Food Safety (revised)"
	newDate := utils.FlexDate{Time: batchDate.AddDate(0, 0, 7)}
	updated, err := workflow.UpdateInspectionBatch(ctx, batch.ID, &models.InspectionBatchPatch{
		Name:      &newName,
		BatchDate: &newDate,
	})
	if err != nil {
		t.Fatalf("UpdateInspectionBatch: %v", err)
	}
	if updated.ID != batch.ID {
		t.Fatalf("update returned batch %d, want %d", updated.ID, batch.ID)
	}
	// Compare against the stored batch row; BatchDate is normalized to
	// local midnight on the way in.
	reloaded, err := models.GetInspectionBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionBatch after update: %v", err)
	}
	if reloaded.Name != newName {
		t.Fatalf("batch name %q after update, want %q", reloaded.Name, newName)
	}
	schedules, err = models.GetInspectionSchedulesByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionSchedulesByBatch after update: %v", err)
	}
	for _, s := range schedules {
		if s.BatchName != newName {
			t.Fatalf("schedule %d name %q did not follow batch rename", s.ID, s.BatchName)
		}
		if !s.InspectionDate.Equal(reloaded.BatchDate) {
			t.Fatalf("schedule %d date %s drifted from batch date %s", s.ID, s.InspectionDate, reloaded.BatchDate)
		}
	}

	// Empty cohort is rejected before any write.
	if _, err := workflow.CreateInspectionBatch(ctx, &models.NewInspectionBatch{
		Name:        "Empty",
		BatchDate:   utils.FlexDate{Time: batchDate},
		Description: "no one matches",
		CreatedBy:   "officer.tran",
	}, nil); err != workflow.ErrEmptyCohort {
		t.Fatalf("expected ErrEmptyCohort, got %v", err)
	}

	// Cascade delete removes everything reachable from the batch.
	if err := workflow.DeleteInspectionBatchCascade(ctx, batch.ID); err != nil {
		t.Fatalf("DeleteInspectionBatchCascade: %v", err)
	}
	if _, err := models.GetInspectionBatch(ctx, batch.ID); err == nil {
		t.Fatalf("batch still readable after cascade delete")
	}
	schedules, err = models.GetInspectionSchedulesByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionSchedulesByBatch after delete: %v", err)
	}
	if len(schedules) != 0 {
		t.Fatalf("expected 0 schedules after delete, got %d", len(schedules))
	}
	db := config.GetDB()
	var orphans int64
	if err := db.WithContext(ctx).Model(&models.ViolationResult{}).Count(&orphans).Error; err != nil {
		t.Fatalf("count violations: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected 0 violations after cascade, got %d", orphans)
	}

	// Deleting the same batch again is a no-op, and stats read as zero.
	if err := workflow.DeleteInspectionBatchCascade(ctx, batch.ID); err != nil {
		t.Fatalf("repeat DeleteInspectionBatchCascade: %v", err)
	}
	stats, err = workflow.GetInspectionStats(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetInspectionStats after delete: %v", err)
	}
	if stats.Total != 0 || stats.Checked != 0 {
		t.Fatalf("stats after delete = %+v, want {0 0}", stats)
	}

	// The businesses themselves survive the cascade.
	for _, id := range businessIds {
		if _, err := models.GetBusiness(ctx, id); err != nil {
			t.Fatalf("business %s lost in cascade: %v", id, err)
		}
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("bizreg-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("bizreg-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=bizreg_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
