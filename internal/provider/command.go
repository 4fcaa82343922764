package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/jump/internal/candidate"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// RunFunc runs a command given its path below the root command.
type RunFunc func(ctx context.Context, args []string) error

// CommandProvider lists the runnable commands of a cobra command tree.
type CommandProvider struct {
	root *cobra.Command
	run  RunFunc
}

// NewCommandProvider creates a CommandProvider. run defaults to SelfExec.
func NewCommandProvider(root *cobra.Command, run RunFunc) *CommandProvider {
	if run == nil {
		run = SelfExec
	}
	return &CommandProvider{root: root, run: run}
}

func (p *CommandProvider) Kind() candidate.Kind { return candidate.KindCommand }

// Load walks the tree depth first. Hidden, deprecated, help and completion
// commands are left out, along with their subcommands.
func (p *CommandProvider) Load(ctx context.Context) ([]*candidate.Candidate, error) {
	if p.root == nil {
		return nil, jerrors.InternalError("command tree is not configured", nil)
	}
	var cands []*candidate.Candidate
	var visit func(cmd *cobra.Command, path []string) error
	visit = func(cmd *cobra.Command, path []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, sub := range cmd.Commands() {
			if !listed(sub) {
				continue
			}
			subPath := append(append([]string{}, path...), sub.Name())
			if sub.Runnable() {
				cands = append(cands, candidate.NewCommand(candidate.CommandData{
					Path:    subPath,
					Short:   sub.Short,
					Aliases: sub.Aliases,
				}))
			}
			if err := visit(sub, subPath); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(p.root, nil); err != nil {
		return nil, err
	}
	return cands, nil
}

func listed(cmd *cobra.Command) bool {
	if cmd.Hidden || cmd.Deprecated != "" {
		return false
	}
	switch cmd.Name() {
	case "help", "completion":
		return false
	}
	return true
}

// Activate runs the command on commit.
func (p *CommandProvider) Activate(ctx context.Context, c *candidate.Candidate, commit bool) error {
	if err := checkKind(p, c); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := p.run(ctx, c.Command.Path); err != nil {
		return jerrors.New(jerrors.ErrCodeCommandFailed,
			fmt.Sprintf("command %q failed", strings.Join(c.Command.Path, " ")), err)
	}
	return nil
}

// SelfExec runs the current executable with args, attached to the process
// terminal.
func SelfExec(ctx context.Context, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}
