// Package prompt reads interactive input for CLI commands.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// ConsolePrompter reads answers from the terminal.
type ConsolePrompter struct {
	reader *bufio.Reader
}

// NewConsolePrompter creates a prompter reading from stdin.
func NewConsolePrompter() *ConsolePrompter {
	return newPrompterWithReader(os.Stdin)
}

func newPrompterWithReader(r io.Reader) *ConsolePrompter {
	return &ConsolePrompter{reader: bufio.NewReader(r)}
}

// PromptString prompts the user for a string input.
func (p *ConsolePrompter) PromptString(message string) (string, error) {
	fmt.Print(message)
	input, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptStringWithDefault prompts with a default value.
func (p *ConsolePrompter) PromptStringWithDefault(message, defaultValue string) (string, error) {
	input, err := p.PromptString(fmt.Sprintf("%s [%s]: ", message, defaultValue))
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// PromptSecret prompts for sensitive input. Input is hidden when stdin is a
// terminal.
func (p *ConsolePrompter) PromptSecret(message string) (string, error) {
	fmt.Print(message)

	if !term.IsTerminal(syscall.Stdin) {
		input, err := p.reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(input), nil
	}

	password, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", err
	}
	fmt.Println()
	return string(password), nil
}

// PromptConfirm prompts for yes/no confirmation.
func (p *ConsolePrompter) PromptConfirm(message string) (bool, error) {
	input, err := p.PromptString(fmt.Sprintf("%s [y/N]: ", message))
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes", nil
}
