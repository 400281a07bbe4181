package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/scoutagent/scout/internal/conversation"
)

// Chat runs an interactive read-answer loop for one agent kind on the
// given streams. The full conversation, tool traffic included, stays
// in memory for the life of the loop; nothing is persisted. Typing
// "quit" (or closing the input) ends the session.
func (m *Manager) Chat(ctx context.Context, kind Kind, in io.Reader, out io.Writer) error {
	a, err := newAgent(kind, m.cfg, m.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	loop := m.loop(a)

	var turns []conversation.Turn
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		res, err := loop.Run(ctx, a.SystemPrompt, turns, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		turns = append(turns, res.NewTurns...)
		fmt.Fprintln(out, res.Text)
	}
	return scanner.Err()
}

// Ask runs a single question through an agent with no prior history
// and returns the answer.
func (m *Manager) Ask(ctx context.Context, kind Kind, question string) (string, error) {
	a, err := newAgent(kind, m.cfg, m.logger)
	if err != nil {
		return "", err
	}
	defer a.Close()

	res, err := m.loop(a).Run(ctx, a.SystemPrompt, nil, question)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
