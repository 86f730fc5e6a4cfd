package store

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("already exists")
	ErrReservedCategory = errors.New("category name is reserved")
	ErrStoreCorrupt     = errors.New("sitemap is corrupt")
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrReservedCategory):
		return "invalid"
	default:
		return "error"
	}
}
