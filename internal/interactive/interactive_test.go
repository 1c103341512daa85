package interactive

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStreamReadLine(t *testing.T) {
	s := NewStream(strings.NewReader("yes\r\nno\nlast"), io.Discard)

	for _, want := range []string{"yes", "no", "last"} {
		got, err := s.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}

	if _, err := s.ReadLine(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestStreamWrite(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)

	if err := s.Write("overwrite (y/n)? "); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := s.WriteLine("Written settings.json"); err != nil {
		t.Fatalf("WriteLine() failed: %v", err)
	}

	want := "overwrite (y/n)? Written settings.json\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestStreamReadPasswordWithoutTerminal(t *testing.T) {
	s := NewStream(strings.NewReader("ghp_token\n"), io.Discard)

	got, err := s.ReadPassword()
	if err != nil {
		t.Fatalf("ReadPassword() failed: %v", err)
	}
	if got != "ghp_token" {
		t.Errorf("expected ghp_token, got %q", got)
	}
}
