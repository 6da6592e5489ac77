package ports

import "errors"

// ErrNotFound is returned by stores for a missing key and by lookups of
// absent records such as an out-of-range transmission index.
var ErrNotFound = errors.New("not found")
