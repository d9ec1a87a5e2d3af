// Package console is the terminal side of the chat: it prints the model's
// replies and progress lines and reads the user's questions.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Speakers shown in front of chat lines.
const (
	SpeakerModel = "GPT"
	SpeakerUser  = "You"
)

var bannerLines = []string{
	"###########################################",
	"# GPT4V-Browsing by Unconventional Coding #",
	"###########################################",
}

// Console reads user lines and writes chat lines. Methods are safe for
// concurrent use, but only one ReadLine may be outstanding at a time.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex

	modelStyle lipgloss.Style
	userStyle  lipgloss.Style
	errorStyle lipgloss.Style
	dimStyle   lipgloss.Style
}

type readResult struct {
	line string
	err  error
}

// New returns a Console over in and out. Styling is applied only when out is a
// terminal that supports it.
func New(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		in:  bufio.NewReader(in),
		out: out,

		modelStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		userStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		errorStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dimStyle:   r.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

// Banner prints the program banner followed by a blank line.
func (c *Console) Banner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range bannerLines {
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintln(c.out)
}

// WriteLine prints "<speaker>: <text>".
func (c *Console) WriteLine(speaker, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", c.prefix(speaker), text)
}

// Status prints a progress line such as "Crawling <url>".
func (c *Console) Status(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.dimStyle.Render(text))
}

// Error prints an error line.
func (c *Console) Error(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.errorStyle.Render("ERROR: "+text))
}

// ReadLine prints the prompt for speaker and returns the next line without its
// line terminator. It returns io.EOF once input is exhausted and ctx.Err() if
// ctx ends first. A read blocked on the input can't be interrupted, so in that
// case it is left running until input arrives or the reader is closed.
func (c *Console) ReadLine(ctx context.Context, speaker string) (string, error) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s ", c.prefix(speaker))
	c.mu.Unlock()

	resCh := make(chan readResult, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		resCh <- readResult{line: line, err: err}
	}()

	var res readResult
	select {
	case res = <-resCh:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	line := strings.TrimRight(res.line, "\r\n")
	if res.err != nil {
		// A final line without a newline still counts.
		if res.err == io.EOF && line != "" {
			c.blank()
			return line, nil
		}
		return "", res.err
	}
	c.blank()
	return line, nil
}

func (c *Console) blank() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
}

func (c *Console) prefix(speaker string) string {
	label := speaker + ":"
	switch speaker {
	case SpeakerModel:
		return c.modelStyle.Render(label)
	case SpeakerUser:
		return c.userStyle.Render(label)
	default:
		return label
	}
}
