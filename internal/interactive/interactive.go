// Package interactive is the line-oriented terminal collaborator used by
// the CLI to prompt the user.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IO reads answers from and writes prompts to the user.
type IO interface {
	// ReadLine returns the next input line without its line terminator.
	ReadLine() (string, error)
	// WriteLine writes text followed by a newline.
	WriteLine(text string) error
	// Write writes text without a trailing newline.
	Write(text string) error
}

// Stream implements IO over a reader and a writer.
type Stream struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal behind in, or -1.
	fd int
}

// NewStream creates a Stream.
func NewStream(in io.Reader, out io.Writer) *Stream {
	return &Stream{in: bufio.NewReader(in), out: out, fd: -1}
}

// Std returns a Stream over stdin and stdout.
func Std() *Stream {
	s := NewStream(os.Stdin, os.Stdout)
	s.fd = int(os.Stdin.Fd())
	return s
}

// ReadLine reads up to the next newline. A final line without a newline is
// returned as is; io.EOF is only reported when nothing was read.
func (s *Stream) ReadLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes text and a newline.
func (s *Stream) WriteLine(text string) error {
	_, err := fmt.Fprintln(s.out, text)
	return err
}

// Write writes text.
func (s *Stream) Write(text string) error {
	_, err := io.WriteString(s.out, text)
	return err
}

// ReadPassword reads a line without echoing it when the input is a
// terminal. Other inputs are read like ReadLine.
func (s *Stream) ReadPassword() (string, error) {
	if s.fd < 0 || !term.IsTerminal(s.fd) {
		return s.ReadLine()
	}

	secret, err := term.ReadPassword(s.fd)
	_ = s.WriteLine("")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
