package dbscheme

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Write renders entries as a dbscheme file for language.
func Write(w io.Writer, language string, entries []Entry) error {
	var buf bytes.Buffer
	buf.WriteString("// CodeQL database schema for " + language + "\n")
	buf.WriteString("// Automatically generated from the tree-sitter grammar; do not edit\n")

	for _, e := range entries {
		buf.WriteByte('\n')
		switch entry := e.(type) {
		case *Table:
			writeTable(&buf, entry)
		case *Union:
			writeUnion(&buf, entry)
		case *Case:
			writeCase(&buf, entry)
		default:
			return fmt.Errorf("unsupported schema entry %T", e)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeTable(buf *bytes.Buffer, t *Table) {
	for _, keyset := range t.Keysets {
		buf.WriteString("#keyset[" + strings.Join(keyset, ", ") + "]\n")
	}
	buf.WriteString(t.Name + "(\n")
	for i, c := range t.Columns {
		buf.WriteString("  ")
		if c.Unique {
			buf.WriteString("unique ")
		}
		buf.WriteString(c.Type.String() + " " + c.Name + ": " + c.QLType)
		if c.Ref {
			buf.WriteString(" ref")
		}
		if i < len(t.Columns)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(");\n")
}

func writeUnion(buf *bytes.Buffer, u *Union) {
	buf.WriteString(at(u.Name) + " = " + strings.Join(u.Members, " | ") + "\n")
}

func writeCase(buf *bytes.Buffer, c *Case) {
	buf.WriteString("case " + at(c.Type) + "." + c.Column + " of\n")
	for i, b := range c.Branches {
		if i == 0 {
			buf.WriteString("  ")
		} else {
			buf.WriteString("| ")
		}
		buf.WriteString(strconv.Itoa(b.Value) + " = " + b.Type + "\n")
	}
	buf.WriteString(";\n")
}
