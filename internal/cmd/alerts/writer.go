package alerts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/catalogsync/internal/cmd/output"
)

// Writer writes alerts in the command's output format.
type Writer struct {
	w        io.Writer
	format   output.Format
	useColor bool
	quiet    bool
}

// NewWriter creates a Writer. Color is used only on terminals unless
// noColor is set; quiet suppresses everything but errors.
func NewWriter(w io.Writer, format output.Format, noColor, quiet bool) *Writer {
	return &Writer{
		w:        w,
		format:   format,
		useColor: !noColor && isTerminal(w),
		quiet:    quiet,
	}
}

// alertData represents alert data for structured output.
type alertData struct {
	Level   string   `json:"level" yaml:"level"`
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Write writes an alert.
func (aw *Writer) Write(a *Alert) error {
	if aw.quiet && a.Level != LevelError {
		return nil
	}
	switch aw.format {
	case output.FormatJSON, output.FormatYAML:
		data := alertData{Level: a.Level.String(), Message: a.Message, Details: a.Details}
		if a.Err != nil {
			data.Error = a.Err.Error()
		}
		if aw.format == output.FormatJSON {
			return json.NewEncoder(aw.w).Encode(data)
		}
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = aw.w.Write(b)
		return err
	default:
		return aw.writePlain(a)
	}
}

func (aw *Writer) writePlain(a *Alert) error {
	message := a.String()
	if aw.useColor {
		message = a.Level.Color() + message + resetColor
	}
	if _, err := fmt.Fprintln(aw.w, message); err != nil {
		return err
	}
	for _, detail := range a.Details {
		if _, err := fmt.Fprintf(aw.w, "   %s\n", detail); err != nil {
			return err
		}
	}
	return nil
}

// isTerminal checks if the writer is a terminal (for color support).
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
