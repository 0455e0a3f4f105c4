package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects how a snapshot is written.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned for output formats other than text, json and msgpack.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encode writes s to w in the given format.
func Encode(w io.Writer, s *Snapshot, format Format) error {
	switch format {
	case FormatText:
		return WriteText(w, s)
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(s)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decode reads a snapshot written by Encode. The text format is not readable back.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot decode %q", ErrUnknownFormat, format)
	}
	return &s, nil
}

// WriteText prints one line per vertex followed by the variable table.
func WriteText(w io.Writer, s *Snapshot) error {
	var sb strings.Builder
	if s.Level != "" {
		fmt.Fprintf(&sb, "level: %s\n", s.Level)
	}
	fmt.Fprintf(&sb, "grid: %dx%d, %d vertices, %d variables\n", s.Width, s.Height, len(s.Vertices), len(s.Variables))

	for _, v := range s.Vertices {
		marker := " "
		if v.ID == s.Root {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s #%-4d %s", marker, v.ID, v.Text)
		switch {
		case v.True != nil && v.False != nil:
			fmt.Fprintf(&sb, " ? #%d : #%d", *v.True, *v.False)
		case len(v.Children) > 0:
			targets := make([]string, len(v.Children))
			for i, c := range v.Children {
				targets[i] = fmt.Sprintf("#%d", c)
			}
			fmt.Fprintf(&sb, " -> %s", strings.Join(targets, ", "))
		}
		sb.WriteByte('\n')
	}

	for _, v := range s.Variables {
		if v.User && v.Cell != nil {
			fmt.Fprintf(&sb, "var %s = %d (cell %s)\n", v.Name, v.Initial, v.Cell)
			continue
		}
		fmt.Fprintf(&sb, "var %s scope=%d\n", v.Name, len(v.Scope))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
