//go:build windows

// keyboard_host_windows.go - raw-mode stdin reader for KeyboardHost on
// Windows, where syscall.SetNonblock has no stdin equivalent. Adapted from
// the teacher's terminal_host_windows.go (blocking os.Stdin.Read instead of
// syscall.Read).

package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Start puts stdin into raw mode and begins reading keystrokes in a
// background goroutine.
func (h *KeyboardHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyboard: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				h.enqueue(buf[0])
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the reader goroutine and restores the terminal.
func (h *KeyboardHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState.(*term.State))
		h.oldTermState = nil
	}
}
