package services

import (
	"github.com/pkg/errors"

	"github.com/anonto42/preschool-social/backend/internal/repositories"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrNotFound          = repositories.ErrNotFound
	ErrAlreadyLiked      = errors.New("item already liked")
	ErrNotLiked          = errors.New("item not liked")
	ErrEmptyBody         = errors.New("body is empty")
	ErrSelfFollow        = errors.New("cannot follow self")
	ErrForbidden         = errors.New("permission denied")
	ErrProfileIncomplete = errors.New("profile must be completed first")
	ErrInvalidKind       = errors.New("unknown content kind")
	ErrInvalidFolder     = errors.New("unknown upload folder")
)
