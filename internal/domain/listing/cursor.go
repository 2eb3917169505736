package listing

// Cursor enforces the pagination-reset invariant: whenever the filter or
// sort configuration changes, the effective page drops back to 1. The
// configuration is identified by an opaque fingerprint supplied by the
// caller (any stable encoding of its filter and sort values).
type Cursor struct {
	fingerprint string
	seen        bool
}

// Resolve returns the page to request. The first call, and any call with
// a fingerprint different from the previous one, resolves to page 1;
// otherwise the requested page is kept.
func (c *Cursor) Resolve(fingerprint string, requested int) int {
	if requested < 1 {
		requested = 1
	}
	if !c.seen || fingerprint != c.fingerprint {
		c.fingerprint = fingerprint
		c.seen = true
		return 1
	}
	return requested
}
