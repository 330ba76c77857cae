// Package prompt asks the operator questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Prompter asks the operator for confirmation or free-form answers.
type Prompter interface {
	// Confirm reports whether the answer contains a "y".
	Confirm(question string) (bool, error)
	// Ask returns the trimmed answer, or def when the answer is empty.
	Ask(question, def string) (string, error)
}

// Terminal reads answers line by line from a reader.
type Terminal struct {
	mu     sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewTerminal returns a prompter bound to stdin/stdout.
func NewTerminal() *Terminal {
	return NewTerminalWith(os.Stdin, os.Stdout)
}

// NewTerminalWith returns a prompter bound to r and w.
func NewTerminalWith(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(r), writer: w}
}

func (t *Terminal) readLine(question string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = fmt.Fprint(t.writer, question)
	line, err := t.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.readLine(question)
	if err != nil {
		return false, err
	}
	return IsYes(answer), nil
}

func (t *Terminal) Ask(question, def string) (string, error) {
	answer, err := t.readLine(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// IsYes mirrors the permissive confirmation rule: any answer containing "y".
func IsYes(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "y")
}

// Yes answers every confirmation positively and every question with its default.
type Yes struct{}

func (Yes) Confirm(string) (bool, error)      { return true, nil }
func (Yes) Ask(_, def string) (string, error) { return def, nil }

// Scripted replays canned answers and records the questions asked.
type Scripted struct {
	mu        sync.Mutex
	Answers   []string
	Questions []string
}

// NewScripted returns a Scripted prompter answering in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) next(question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Questions = append(s.Questions, question)
	if len(s.Answers) == 0 {
		return "", io.EOF
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

func (s *Scripted) Confirm(question string) (bool, error) {
	a, err := s.next(question)
	if err != nil {
		return false, err
	}
	return IsYes(a), nil
}

func (s *Scripted) Ask(question, def string) (string, error) {
	a, err := s.next(question)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(a) == "" {
		return def, nil
	}
	return strings.TrimSpace(a), nil
}

// Asked returns a copy of the recorded questions.
func (s *Scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Questions...)
}
