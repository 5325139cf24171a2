package txn

import "errors"

// ErrClosed is returned for any operation on a closed coordinator, including
// entries that were still queued when Close was called.
var ErrClosed = errors.New("transaction coordinator is closed")
