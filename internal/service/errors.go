package service

import "errors"

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidSession      = errors.New("invalid session")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidURL          = errors.New("wrong URL format")
	ErrStreamNotFound      = errors.New("stream not found")
	ErrForbidden           = errors.New("stream belongs to another creator")
	ErrAlreadyVoted        = errors.New("already upvoted")
	ErrVoteNotFound        = errors.New("no existing upvote to remove")
	ErrEmptyQueue          = errors.New("no streams available")
	ErrQueueContended      = errors.New("queue changed while advancing, retry")
	ErrMetadataUnavailable = errors.New("invalid youtube video id")
	ErrUpstreamConfig      = errors.New("youtube api key not configured")
	ErrUpstream            = errors.New("video metadata lookup failed")
)
