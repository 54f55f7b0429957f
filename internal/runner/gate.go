package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Asker asks the operator a yes/no question and returns the raw answer.
type Asker interface {
	Ask(prompt string) (string, error)
}

// LineAsker reads one line from In after writing the prompt to Out.
type LineAsker struct {
	In  io.Reader
	Out io.Writer
}

func (a LineAsker) Ask(prompt string) (string, error) {
	fmt.Fprint(a.Out, prompt)
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}

// FixedAsker answers every question with the same text.
type FixedAsker string

func (a FixedAsker) Ask(string) (string, error) {
	return string(a), nil
}

var affirmative = map[string]bool{
	"s":   true,
	"si":  true,
	"sí":  true,
	"y":   true,
	"yes": true,
}

// IsAffirmative reports whether answer confirms. Empty input declines.
func IsAffirmative(answer string) bool {
	return affirmative[strings.ToLower(strings.TrimSpace(answer))]
}

// Gate holds a destructive run until the operator confirms it.
type Gate struct {
	Asker Asker
	Out   io.Writer
}

// Confirm lists the users about to be deleted and waits for an answer.
// A read error (closed stdin included) declines.
func (g *Gate) Confirm(items []WorkItem) bool {
	fmt.Fprintf(g.Out, "\n🚨 USERS THAT WILL BE DELETED:\n")
	for i, it := range items {
		fmt.Fprintf(g.Out, "   %d. ID: %d - %s (%s)\n", i+1, it.ID, it.Name, it.Email)
	}

	answer, err := g.Asker.Ask("\n⚠️  Are you sure you want to delete these users? (y/N): ")
	if err != nil {
		return false
	}
	return IsAffirmative(answer)
}
