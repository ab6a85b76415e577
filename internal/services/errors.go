package services

import "errors"

var (
	// ErrForbidden is returned when the caller is not a member of the chat.
	// Membership absence is reported as Forbidden rather than NotFound so
	// guarded paths do not leak whether a chat exists.
	ErrForbidden = errors.New("not a chat member")

	// ErrInvalidRange is returned for inverted or malformed time ranges.
	ErrInvalidRange = errors.New("invalid message range")

	// ErrInvalidContent is returned when message content violates the
	// 1-1024 character constraint.
	ErrInvalidContent = errors.New("invalid message content")
)
