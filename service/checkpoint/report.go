package checkpoint

// Report describes the outcome of a restore.
type Report struct {
	Rank  int    `json:"rank"`
	URL   string `json:"url"`
	Items int    `json:"items"`
	// AppendedToNonEmpty is set when the target queue already held items;
	// restored items follow them instead of being restored to the front.
	AppendedToNonEmpty bool    `json:"appendedToNonEmpty,omitempty"`
	LineErrors         []error `json:"-"`
}

// Degraded reports whether any line could not be read.
func (r *Report) Degraded() bool {
	return r != nil && len(r.LineErrors) > 0
}
