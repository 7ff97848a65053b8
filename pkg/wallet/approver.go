package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("approval needs an interactive terminal, pass --yes to approve")

// TerminalApprover prompts on a terminal and reads a y/N answer
type TerminalApprover struct {
	In  *os.File
	Out io.Writer
}

func NewTerminalApprover() *TerminalApprover {
	return &TerminalApprover{In: os.Stdin, Out: os.Stderr}
}

func (a *TerminalApprover) Approve(ctx context.Context, provider string, address solana.PublicKey) (bool, error) {
	if !term.IsTerminal(int(a.In.Fd())) {
		return false, errNoTerminal
	}

	fmt.Fprintf(a.Out, "Connect %s wallet %s? [y/N] ", provider, address)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(a.In).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// AutoApprover approves every request; used with --yes
type AutoApprover struct{}

func (AutoApprover) Approve(ctx context.Context, provider string, address solana.PublicKey) (bool, error) {
	return true, nil
}
