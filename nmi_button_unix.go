//go:build !windows

// nmi_button_unix.go - wires the Spectranet NMI button (§D.1) to SIGUSR1 on
// platforms that have it. See nmi_button_windows.go for the Windows stub.

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func notifyNMIButton(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}
