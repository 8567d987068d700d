package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")

	ErrNoSession             = errors.New("no active session")
	ErrDuplicateSession      = errors.New("session already exists")
	ErrSessionCreationFailed = errors.New("failed to create session")
)
