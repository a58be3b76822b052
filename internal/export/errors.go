package export

import "errors"

// ErrExternal is returned when the export destination rejects or fails a
// write. Failed exports are not retried.
var ErrExternal = errors.New("export destination failure")
