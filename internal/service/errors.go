package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrForbidden indicates the actor may not perform the operation on this resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNoChanges indicates an update carried no effective modification.
	ErrNoChanges = errors.New("no changes detected")
	// ErrEmptyContent indicates a required text field is empty once sanitised.
	ErrEmptyContent = errors.New("content empty after sanitization")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrWrongPassword      = errors.New("current password does not match")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	ErrUniversityNotFound  = errors.New("university not found")
	ErrUniversityCodeTaken = errors.New("university code already used")
	ErrUniversityInUse     = errors.New("university referenced by scholars")

	ErrScholarNotFound       = errors.New("scholar not found")
	ErrScholarExists         = errors.New("user already has a scholar record")
	ErrInvalidAdvisor        = errors.New("advisor must be an active supervisor")
	ErrScholarProfileMissing = errors.New("caller has no scholar record")
	ErrScholarRequired       = errors.New("scholar_id is required")

	ErrActivityNotFound  = errors.New("activity not found")
	ErrActivityLocked    = errors.New("activity can no longer be edited by its owner")
	ErrInvalidTransition = errors.New("invalid activity status transition")
	ErrInvalidDateRange  = errors.New("end date precedes start date")

	ErrEvaluationNotFound  = errors.New("evaluation not found")
	ErrEvaluationExists    = errors.New("activity already evaluated by this evaluator")
	ErrActivityNotGradable = errors.New("activity must be submitted or completed")

	ErrDocumentNotFound     = errors.New("document not found")
	ErrFileRequired         = errors.New("file is required")
	ErrUploadTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	ErrUploadScanFailed     = errors.New("file scanning failed")

	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoRecipients         = errors.New("no recipients")

	ErrUnsupportedExport = errors.New("unsupported export")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation recognises duplicate-key errors from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// mapNotFound swaps gorm's not-found error for a domain sentinel.
func mapNotFound(err, sentinel error) error {
	if isNotFound(err) {
		return sentinel
	}
	return err
}
