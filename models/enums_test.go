package models

import (
	"encoding/json"
	"testing"
)

func TestBatchStatusUnmarshal(t *testing.T) {
	var s BatchStatus
	if err := json.Unmarshal([]byte(`"ongoing"`), &s); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	if s != BatchStatusOngoing {
		t.Fatalf("got %q, want ongoing", s)
	}

	for _, bad := range []string{`"archived"`, `"Scheduled"`, `""`, `42`} {
		var v BatchStatus
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Fatalf("expected %s to be rejected", bad)
		}
	}
}

func TestInspectorStatusUnmarshal(t *testing.T) {
	var s InspectorStatus
	if err := json.Unmarshal([]byte(`"cancelled"`), &s); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	if s != InspectorStatusCancelled {
		t.Fatalf("got %q, want cancelled", s)
	}

	var v InspectorStatus
	if err := json.Unmarshal([]byte(`"done"`), &v); err == nil {
		t.Fatalf("expected unknown inspector status to be rejected")
	}
}

func TestViolationAndFixStatusUnmarshal(t *testing.T) {
	var vs ViolationStatus
	if err := json.Unmarshal([]byte(`"dismissed"`), &vs); err != nil {
		t.Fatalf("valid violation status rejected: %v", err)
	}
	if err := json.Unmarshal([]byte(`"void"`), &vs); err == nil {
		t.Fatalf("expected unknown violation status to be rejected")
	}

	var fs FixStatus
	if err := json.Unmarshal([]byte(`"in_progress"`), &fs); err != nil {
		t.Fatalf("valid fix status rejected: %v", err)
	}
	if err := json.Unmarshal([]byte(`"wontfix"`), &fs); err == nil {
		t.Fatalf("expected unknown fix status to be rejected")
	}
}

func TestUserRoleUnmarshal(t *testing.T) {
	var r UserRole
	if err := json.Unmarshal([]byte(`"officer"`), &r); err != nil {
		t.Fatalf("valid role rejected: %v", err)
	}
	if err := json.Unmarshal([]byte(`"superadmin"`), &r); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
