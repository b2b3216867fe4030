package domain

import "immigration_crm_go/models"

// CaseStatus is the client-facing case lifecycle state
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "abierto"
	CaseStatusInProgress CaseStatus = "en_proceso"
	CaseStatusClosed     CaseStatus = "cerrado"
	CaseStatusCancelled  CaseStatus = "cancelado"
)

// MapCaseStatus translates a stored status into the client-facing enum.
// Unknown values are reported as cancelled.
func MapCaseStatus(stored string) CaseStatus {
	switch stored {
	case models.CaseStatusOpen:
		return CaseStatusOpen
	case models.CaseStatusInProgress:
		return CaseStatusInProgress
	case models.CaseStatusCompleted:
		return CaseStatusClosed
	default:
		return CaseStatusCancelled
	}
}

// StorageStatus is the inverse of MapCaseStatus
func StorageStatus(status CaseStatus) string {
	switch status {
	case CaseStatusOpen:
		return models.CaseStatusOpen
	case CaseStatusInProgress:
		return models.CaseStatusInProgress
	case CaseStatusClosed:
		return models.CaseStatusCompleted
	default:
		return models.CaseStatusCancelled
	}
}

// ParseCaseStatus accepts either representation and returns the stored value.
func ParseCaseStatus(s string) (string, bool) {
	if models.IsValidCaseStatus(s) {
		return s, true
	}
	switch CaseStatus(s) {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed, CaseStatusCancelled:
		return StorageStatus(CaseStatus(s)), true
	}
	return "", false
}
