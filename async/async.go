// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package async runs blocking calls off the caller's goroutine so their
// result can be selected on alongside other channels.
package async

// ErrAble runs fn in a new goroutine. The returned channel yields fn's
// error exactly once and is then closed. The caller must receive from it,
// or the goroutine never exits.
func ErrAble(fn func() error) <-chan error {
	ch := make(chan error)
	go func() {
		ch <- fn()
		close(ch)
	}()
	return ch
}
