//go:build windows

// nmi_button_windows.go - Windows has no SIGUSR1 equivalent in package
// syscall, so the Spectranet NMI button (§D.1) has no signal-driven trigger
// on this platform; ch is simply never signaled.

package main

import "os"

func notifyNMIButton(ch chan<- os.Signal) {}
