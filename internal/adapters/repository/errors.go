package repository

import "github.com/okian/skilltier/internal/domain/model"

// Sentinel kinds returned by stores. They alias the domain errors so callers
// can match with errors.Is against either package.
var (
	ErrNotFound = model.ErrNotFound
	ErrConflict = model.ErrConflict
)
