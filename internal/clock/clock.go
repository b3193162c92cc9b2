// Package clock lets tests pin the time recorded by progress trackers and
// message timestamps.
package clock

import "time"

// NowFunc is the time source; tests replace it and restore time.Now.
var NowFunc = time.Now

// Now returns NowFunc().
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t according to NowFunc.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }
