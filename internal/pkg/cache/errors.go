package cache

import "github.com/pkg/errors"

// ErrNotFound is returned when the requested key does not exist in the cache.
var ErrNotFound = errors.New("cache: key not found")
