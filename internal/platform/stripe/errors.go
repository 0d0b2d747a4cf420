package stripe

import "errors"

// ErrNotConfigured is returned by outbound calls when no API key is set.
var ErrNotConfigured = errors.New("stripe is not configured")
