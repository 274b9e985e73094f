package extractions

import "errors"

var ErrNotFound = errors.New("extraction not found")
