// Package sqltext turns a query's construction argument into SQL text
// and splits that text into statements.
package sqltext

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Suffix marks a bare string as a path to a SQL file.
const Suffix = ".sql"

// Delimiter separates statements in a script. Splitting is purely textual:
// a ";" inside a quoted literal followed by a newline still splits.
const Delimiter = ";\n"

// ErrLoad reports a SQL file that could not be read.
var ErrLoad = errors.New("load error")

// Kind tags how a Source's text is interpreted.
type Kind int

const (
	// KindPathGuess reads Text as a file when it ends in Suffix, else uses it verbatim.
	KindPathGuess Kind = iota
	// KindFile always reads Text as a file path.
	KindFile
	// KindLiteral uses Text verbatim.
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindPathGuess:
		return "path-guess"
	case KindFile:
		return "file"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is the unresolved SQL argument of a query.
type Source struct {
	Kind Kind
	Text string
}

// PathGuess returns a Source that is read from disk when s ends in Suffix.
func PathGuess(s string) Source { return Source{Kind: KindPathGuess, Text: s} }

// File returns a Source that is always read from path.
func File(path string) Source { return Source{Kind: KindFile, Text: path} }

// Literal returns a Source used verbatim as SQL.
func Literal(s string) Source { return Source{Kind: KindLiteral, Text: s} }

// ReadFileFunc reads a whole file. os.ReadFile satisfies it.
type ReadFileFunc func(name string) ([]byte, error)

// Resolve returns the SQL text for src. A nil read uses os.ReadFile.
//
// File contents have a single trailing newline stripped. Literal text and
// path-guess text without the SQL suffix are returned unchanged.
func Resolve(src Source, read ReadFileFunc) (string, error) {
	if read == nil {
		read = os.ReadFile
	}

	switch src.Kind {
	case KindLiteral:
		return src.Text, nil
	case KindFile:
		return load(src.Text, read)
	case KindPathGuess:
		if strings.HasSuffix(src.Text, Suffix) {
			return load(src.Text, read)
		}
		return src.Text, nil
	default:
		return "", fmt.Errorf("unknown sql source kind %v", src.Kind)
	}
}

func load(path string, read ReadFileFunc) (string, error) {
	data, err := read(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// Split breaks sql into statements on Delimiter, preserving textual order.
// Statements that are empty after trimming whitespace are dropped, so a
// script ending in ";\n" does not produce a trailing empty statement.
func Split(sql string) []string {
	parts := strings.Split(sql, Delimiter)
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		stmts = append(stmts, p)
	}
	return stmts
}
