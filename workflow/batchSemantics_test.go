package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// NOTE: These tests are intentionally DB-free. They validate the intended batch semantics:
// - creation is all-or-nothing: one schedule per cohort business, or no batch at all
// - mirrored fields fan out to every schedule on update (no drift)
// - delete cascades leaves-first and deleting an absent batch is a no-op
//
// Full DB integration coverage lives in inspectionBatchRegression_test.go
// (requires docker for MySQL + Redis).

type fakeBatchStore struct {
	mu         sync.Mutex
	nextId     int
	batches    map[int]string   // batchId -> name
	schedules  map[int][]string // batchId -> mirrored batch name per schedule
	reports    map[int]int      // batchId -> report count
	violations map[int][]string // batchId -> business id per violation row
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{
		batches:    map[int]string{},
		schedules:  map[int][]string{},
		reports:    map[int]int{},
		violations: map[int][]string{},
	}
}

func (s *fakeBatchStore) create(name string, businessIds []string) (int, error) {
	if len(businessIds) == 0 {
		return 0, ErrEmptyCohort
	}
	if name == "" {
		return 0, ErrMissingBatchData
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	id := s.nextId
	// Single commit point: batch and schedules appear together.
	s.batches[id] = name
	mirrored := make([]string, len(businessIds))
	for i := range businessIds {
		mirrored[i] = name
	}
	s.schedules[id] = mirrored
	return id, nil
}

func (s *fakeBatchStore) rename(batchId int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batchId]; !ok {
		return errors.New("record not found")
	}
	if name == "" {
		return ErrMissingBatchData
	}
	s.batches[batchId] = name
	for i := range s.schedules[batchId] {
		s.schedules[batchId][i] = name
	}
	return nil
}

func (s *fakeBatchStore) deleteCascade(batchId int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// leaves first; absent keys delete zero rows
	delete(s.violations, batchId)
	delete(s.reports, batchId)
	delete(s.schedules, batchId)
	delete(s.batches, batchId)
}

func (s *fakeBatchStore) distinctViolated(batchId int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, biz := range s.violations[batchId] {
		seen[biz] = true
	}
	return len(seen)
}

func TestBatchCreate_FanOutOnePerBusiness(t *testing.T) {
	s := newFakeBatchStore()

	id, err := s.create("Q3 Food Safety", []string{"b1", "b2", "b3"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(s.schedules[id]); got != 3 {
		t.Fatalf("expected 3 schedules, got %d", got)
	}
	for i, name := range s.schedules[id] {
		if name != "Q3 Food Safety" {
			t.Fatalf("schedule %d mirrors %q, want batch name", i, name)
		}
	}
}

func TestBatchCreate_EmptyCohortRejectedBeforeWrite(t *testing.T) {
	s := newFakeBatchStore()

	if _, err := s.create("Empty", nil); !errors.Is(err, ErrEmptyCohort) {
		t.Fatalf("expected ErrEmptyCohort, got %v", err)
	}
	if len(s.batches) != 0 || len(s.schedules) != 0 {
		t.Fatalf("rejected create must leave no rows behind")
	}

	if _, err := s.create("", []string{"b1"}); !errors.Is(err, ErrMissingBatchData) {
		t.Fatalf("expected ErrMissingBatchData, got %v", err)
	}
}

func TestBatchRename_PropagatesToEverySchedule(t *testing.T) {
	s := newFakeBatchStore()
	id, _ := s.create("Old Name", []string{"b1", "b2", "b3", "b4"})

	if err := s.rename(id, "New Name"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	for i, name := range s.schedules[id] {
		if name != "New Name" {
			t.Fatalf("schedule %d still reads %q after rename", i, name)
		}
	}

	if err := s.rename(id, ""); !errors.Is(err, ErrMissingBatchData) {
		t.Fatalf("blank name must be rejected, got %v", err)
	}
}

func TestBatchDelete_CascadesAndIsIdempotent(t *testing.T) {
	s := newFakeBatchStore()
	id, _ := s.create("Doomed", []string{"b1", "b2"})
	s.reports[id] = 2
	s.violations[id] = []string{"b1"}

	s.deleteCascade(id)
	if len(s.batches) != 0 || len(s.schedules) != 0 || len(s.reports) != 0 || len(s.violations) != 0 {
		t.Fatalf("cascade left rows behind: %+v", s)
	}

	// Second delete of the same id must not error or touch other batches.
	other, _ := s.create("Survivor", []string{"b9"})
	s.deleteCascade(id)
	if _, ok := s.batches[other]; !ok {
		t.Fatalf("idempotent re-delete removed an unrelated batch")
	}
}

func TestViolationStats_CountDistinctBusinesses(t *testing.T) {
	s := newFakeBatchStore()
	id, _ := s.create("Stats", []string{"b1", "b2", "b3"})

	// b1 has two violations; it still counts once.
	s.violations[id] = []string{"b1", "b1", "b2"}
	if got := s.distinctViolated(id); got != 2 {
		t.Fatalf("expected 2 distinct violated businesses, got %d", got)
	}
}

func TestInvalidateBatchCaches_ReportsEveryTouchedKey(t *testing.T) {
	bizA := uuid.New()
	bizB := uuid.New()

	touched := invalidateBatchCaches(7, []uuid.UUID{bizA, bizB})

	want := []string{
		"InspectionBatchList",
		"InspectionBatch:7",
		"InspectionScheduleList:" + bizA.String(),
		"InspectionScheduleList:" + bizB.String(),
	}
	if len(touched) != len(want) {
		t.Fatalf("touched %v, want %v", touched, want)
	}
	for i := range want {
		if touched[i] != want[i] {
			t.Fatalf("touched %v, want %v", touched, want)
		}
	}
}

func TestBatchCreate_ConcurrentCreatesGetDistinctIds(t *testing.T) {
	s := newFakeBatchStore()

	var wg sync.WaitGroup
	ids := make([]int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.create("Concurrent", []string{"b1"})
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate batch id %d", id)
		}
		seen[id] = true
		if got := len(s.schedules[id]); got != 1 {
			t.Fatalf("batch %d has %d schedules, want 1", id, got)
		}
	}
}
