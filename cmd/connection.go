// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 PDU Simulator Contributors

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// resolveDebugPassword retrieves the debug stream's Basic-auth password
// from the environment, or prompts for it interactively. There is
// intentionally no --debug-password flag, so a password never appears in
// shell history or a process listing.
func resolveDebugPassword() (string, error) {
	if pw := os.Getenv("PDUSIM_DEBUG_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Debug stream password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}
