package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"

	jerrors "github.com/Aman-CERP/jump/internal/errors"
)

// Opener opens a file at a line.
type Opener interface {
	Open(ctx context.Context, path string, line int) error
}

// DefaultLineFlag is the argument template that positions most terminal
// editors at a line.
const DefaultLineFlag = "+{line}"

// EditorOpener runs an editor command line.
type EditorOpener struct {
	// Command is the editor command line, e.g. "code --wait". Empty means
	// $VISUAL, then $EDITOR, then vi.
	Command string

	// LineFlag is inserted before the path when a line is known, e.g. "+{line}"
	// or "-g {file}:{line}". When it mentions {file} the path is not appended
	// separately.
	LineFlag string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewEditorOpener creates an opener attached to the process terminal.
func NewEditorOpener(command, lineFlag string) *EditorOpener {
	return &EditorOpener{
		Command:  command,
		LineFlag: lineFlag,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// DefaultEditor returns $VISUAL, $EDITOR or vi.
func DefaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return "vi"
}

// Args returns the argv that opens path at line.
func (o *EditorOpener) Args(path string, line int) ([]string, error) {
	command := o.Command
	if command == "" {
		command = DefaultEditor()
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid editor command %q", command), err)
	}
	if len(argv) == 0 {
		return nil, jerrors.New(jerrors.ErrCodeConfigInvalid, "editor command is empty", nil)
	}

	if line <= 0 || o.LineFlag == "" {
		return append(argv, path), nil
	}

	flag, err := shlex.Split(strings.ReplaceAll(o.LineFlag, "{line}", strconv.Itoa(line)))
	if err != nil {
		return nil, jerrors.New(jerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid editor line flag %q", o.LineFlag), err)
	}
	withFile := false
	for _, f := range flag {
		if strings.Contains(f, "{file}") {
			withFile = true
		}
		argv = append(argv, strings.ReplaceAll(f, "{file}", path))
	}
	if !withFile {
		argv = append(argv, path)
	}
	return argv, nil
}

// Open runs the editor and waits for it to exit.
func (o *EditorOpener) Open(ctx context.Context, path string, line int) error {
	argv, err := o.Args(path, line)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = o.Stdin, o.Stdout, o.Stderr
	if err := cmd.Run(); err != nil {
		return jerrors.New(jerrors.ErrCodeEditorFailed, fmt.Sprintf("editor %s failed", argv[0]), err).
			WithDetail("path", path).
			WithSuggestion("Set editor.command in .jump.yaml or $EDITOR")
	}
	return nil
}
