// Package prompt separates interactive confirmation from decision logic.
// Business code asks through the Prompter interface; the console
// implementation lives here, test doubles live next to their users.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks a human to confirm or pick curation decisions.
type Prompter interface {
	// AskBool asks a yes/no question.
	AskBool(question string) (bool, error)
	// AskEnum presents options and returns the chosen one.
	AskEnum(question string, options []string) (string, error)
	// AskIndex presents n numbered options and returns the chosen 1-based
	// index, or 0 for "none of them".
	AskIndex(question string, options []string) (int, error)
	// AskInt asks for a free-form integer.
	AskInt(question string) (int, error)
	// AskExclusions asks which 1-based indexes to exclude from a batch of n
	// candidates; "all" means exclude none.
	AskExclusions(question string, n int) ([]int, error)
	// Say prints an informational line.
	Say(format string, args ...any)
}

// Console is a line-oriented Prompter over an input reader and output writer.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsole creates a Console prompter.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

func (c *Console) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// Say prints an informational line.
func (c *Console) Say(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// AskBool asks until the answer is "y" or "n".
func (c *Console) AskBool(question string) (bool, error) {
	for {
		fmt.Fprintf(c.out, "%s (y/n): ", question)
		line, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch line {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		fmt.Fprintln(c.out, `Invalid answer, expected "y" or "n"`)
	}
}

// AskEnum lists the options and asks for a 1-based index until valid.
func (c *Console) AskEnum(question string, options []string) (string, error) {
	for {
		for i, opt := range options {
			fmt.Fprintf(c.out, "%d. %s\n", i+1, opt)
		}
		fmt.Fprintf(c.out, "%s (1-%d): ", question, len(options))
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(options) {
			fmt.Fprintf(c.out, "Invalid index, expected 1..%d\n", len(options))
			continue
		}
		return options[idx-1], nil
	}
}

// AskIndex lists the options and asks for a 1-based index or "0" for none.
func (c *Console) AskIndex(question string, options []string) (int, error) {
	for {
		for i, opt := range options {
			fmt.Fprintf(c.out, "%d. %s\n", i+1, opt)
		}
		fmt.Fprintf(c.out, "%s (1-%d, 0 for none): ", question, len(options))
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 0 || idx > len(options) {
			fmt.Fprintf(c.out, "Invalid index, expected 0..%d\n", len(options))
			continue
		}
		return idx, nil
	}
}

// AskInt asks until the answer is an integer.
func (c *Console) AskInt(question string) (int, error) {
	for {
		fmt.Fprintf(c.out, "%s: ", question)
		line, err := c.readLine()
		if err != nil {
			return 0, err
		}
		v, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(c.out, "Invalid number, expected an integer")
			continue
		}
		return v, nil
	}
}

// AskExclusions asks for "all" or a comma-separated list of 1-based indexes
// to exclude from a batch of n candidates.
func (c *Console) AskExclusions(question string, n int) ([]int, error) {
	for {
		fmt.Fprintf(c.out, "%s (\"all\" or comma-separated indexes to exclude): ", question)
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		excluded, parseErr := ParseExclusions(line, n)
		if parseErr != nil {
			fmt.Fprintln(c.out, parseErr.Error())
			continue
		}
		return excluded, nil
	}
}

// ParseExclusions parses a batch answer: "all" keeps every candidate
// (returns nil), otherwise the answer is a comma-separated list of 1-based
// indexes to exclude.
func ParseExclusions(answer string, n int) ([]int, error) {
	if answer == "all" {
		return nil, nil
	}
	parts := strings.Split(answer, ",")
	var excluded []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q, expected an integer", p)
		}
		if idx < 1 || idx > n {
			return nil, fmt.Errorf("index %d out of range 1..%d", idx, n)
		}
		excluded = append(excluded, idx)
	}
	if len(excluded) == 0 {
		return nil, fmt.Errorf(`empty answer, expected "all" or indexes`)
	}
	return excluded, nil
}
