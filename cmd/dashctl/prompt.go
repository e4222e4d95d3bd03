package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPrompt reads secrets without echo when stdin is a terminal and
// falls back to a plain line read otherwise, so scripts can pipe input.
type terminalPrompt struct {
	in     *os.File
	reader *bufio.Reader
	out    io.Writer
}

func newTerminalPrompt(in *os.File, out io.Writer) *terminalPrompt {
	return &terminalPrompt{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *terminalPrompt) Secret(label string) (string, error) {
	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(p.out, label)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
