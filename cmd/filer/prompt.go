package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassphrase reads a passphrase without echo when stdin is a terminal,
// and a single line otherwise.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt+": ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptNewPassphrase asks twice and requires both answers to match.
func promptNewPassphrase() (string, error) {
	first, err := promptPassphrase("New passphrase")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	second, err := promptPassphrase("Repeat passphrase")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passphrases do not match")
	}
	return first, nil
}
