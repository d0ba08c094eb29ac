package models

import "errors"

// All statuses are closed enumerations. Values arrive as JSON strings and
// are rejected at decode time when they fall outside the set.

type BatchStatus string

const (
	BatchStatusScheduled BatchStatus = "scheduled"
	BatchStatusOngoing   BatchStatus = "ongoing"
	BatchStatusCompleted BatchStatus = "completed"
)

func (s *BatchStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("batch status must be string")
	}
	switch str {
	case "scheduled":
		*s = BatchStatusScheduled
	case "ongoing":
		*s = BatchStatusOngoing
	case "completed":
		*s = BatchStatusCompleted
	default:
		return errors.New("invalid batch status")
	}
	return nil
}

type InspectorStatus string

const (
	InspectorStatusPending   InspectorStatus = "pending"
	InspectorStatusCompleted InspectorStatus = "completed"
	InspectorStatusCancelled InspectorStatus = "cancelled"
)

func (s *InspectorStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("inspector status must be string")
	}
	switch str {
	case "pending":
		*s = InspectorStatusPending
	case "completed":
		*s = InspectorStatusCompleted
	case "cancelled":
		*s = InspectorStatusCancelled
	default:
		return errors.New("invalid inspector status")
	}
	return nil
}

type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusFinalized ReportStatus = "finalized"
)

func (s *ReportStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("report status must be string")
	}
	switch str {
	case "draft":
		*s = ReportStatusDraft
	case "finalized":
		*s = ReportStatusFinalized
	default:
		return errors.New("invalid report status")
	}
	return nil
}

type ViolationStatus string

const (
	ViolationStatusPending   ViolationStatus = "pending"
	ViolationStatusPaid      ViolationStatus = "paid"
	ViolationStatusDismissed ViolationStatus = "dismissed"
)

func (s *ViolationStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("violation status must be string")
	}
	violationStatuses := map[string]ViolationStatus{
		"pending":   ViolationStatusPending,
		"paid":      ViolationStatusPaid,
		"dismissed": ViolationStatusDismissed,
	}
	v, ok := violationStatuses[str]
	if !ok {
		return errors.New("invalid violation status")
	}
	*s = v
	return nil
}

type FixStatus string

const (
	FixStatusNotFixed   FixStatus = "not_fixed"
	FixStatusFixed      FixStatus = "fixed"
	FixStatusInProgress FixStatus = "in_progress"
)

func (s *FixStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("fix status must be string")
	}
	fixStatuses := map[string]FixStatus{
		"not_fixed":   FixStatusNotFixed,
		"fixed":       FixStatusFixed,
		"in_progress": FixStatusInProgress,
	}
	v, ok := fixStatuses[str]
	if !ok {
		return errors.New("invalid fix status")
	}
	*s = v
	return nil
}

type BusinessStatus string

const (
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusSuspended BusinessStatus = "suspended"
	BusinessStatusClosed    BusinessStatus = "closed"
)

func (s *BusinessStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("business status must be string")
	}
	switch str {
	case "active":
		*s = BusinessStatusActive
	case "suspended":
		*s = BusinessStatusSuspended
	case "closed":
		*s = BusinessStatusClosed
	default:
		return errors.New("invalid business status")
	}
	return nil
}

type LicenseStatus string

const (
	LicenseStatusValid   LicenseStatus = "valid"
	LicenseStatusExpired LicenseStatus = "expired"
	LicenseStatusRevoked LicenseStatus = "revoked"
)

func (s *LicenseStatus) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("license status must be string")
	}
	switch str {
	case "valid":
		*s = LicenseStatusValid
	case "expired":
		*s = LicenseStatusExpired
	case "revoked":
		*s = LicenseStatusRevoked
	default:
		return errors.New("invalid license status")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleOfficer UserRole = "officer"
)

func (r *UserRole) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return errors.New("user role must be string")
	}
	switch str {
	case "admin":
		*r = UserRoleAdmin
	case "officer":
		*r = UserRoleOfficer
	default:
		return errors.New("invalid user role")
	}
	return nil
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("not a string")
	}
	return string(data[1 : len(data)-1]), nil
}
