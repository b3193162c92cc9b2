package idgen

import "github.com/google/uuid"

// NewFunc generates batch message identifiers; tests may replace it for
// deterministic ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new unique identifier.
func New() string { return NewFunc() }
