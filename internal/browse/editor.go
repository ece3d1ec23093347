package browse

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// fallbackEditors are tried in order when neither VISUAL nor EDITOR is set.
var fallbackEditors = []string{"nvim", "vim", "vi", "nano", "micro", "emacs", "code", "subl"}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ResolveEditor returns the editor command line to use: $VISUAL, then
// $EDITOR, then the first installed fallback.
func ResolveEditor(getenv func(string) string) (string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			return v, nil
		}
	}
	for _, c := range fallbackEditors {
		if _, err := lookPath(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("browse: no editor found, set $VISUAL or $EDITOR")
}

// BuildEditorCommand returns the command that opens path in editor. GUI
// editors that return immediately are asked to wait for the file to close.
func BuildEditorCommand(editor, path string) (*exec.Cmd, error) {
	argv := strings.Fields(strings.TrimSpace(editor))
	if len(argv) == 0 {
		return nil, fmt.Errorf("browse: empty editor")
	}
	bin, err := lookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("browse: editor %q: %w", argv[0], err)
	}

	args := argv[1:]
	switch filepath.Base(bin) {
	case "code", "code-insiders", "codium", "vscodium", "subl":
		if !containsArg(args, "--wait") && !containsArg(args, "-w") {
			args = append(args, "--wait")
		}
	}
	args = append(args, path)
	return exec.Command(bin, args...), nil
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

// EditorOpener returns an Opener that resolves vault paths with abs and
// launches the user's editor.
func EditorOpener(abs func(string) (string, error)) Opener {
	return func(path string) (*exec.Cmd, error) {
		full, err := abs(path)
		if err != nil {
			return nil, err
		}
		editor, err := ResolveEditor(os.Getenv)
		if err != nil {
			return nil, err
		}
		return BuildEditorCommand(editor, full)
	}
}
