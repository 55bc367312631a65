package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Replaced in tests so prompts never touch a real terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read for piped input.
func promptPassword(w io.Writer, in io.Reader, label string) (string, error) {
	if _, err := fmt.Fprint(w, label+": "); err != nil {
		return "", err
	}

	fd := int(os.Stdin.Fd())
	if in == os.Stdin && isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
