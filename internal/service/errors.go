package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrBoardNotFound        = errors.New("board not found")
	ErrSnapshotNotFound     = errors.New("snapshot not found")
	ErrForbidden            = errors.New("board belongs to another user")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidAction        = errors.New("invalid action data")
	ErrSessionBusy          = errors.New("board is already being edited by another connection")
	ErrInternalServer       = errors.New("internal server error")
)
