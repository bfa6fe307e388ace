package ql

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const indentSize = 2

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// printer renders declarations with two-space indentation.
type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() { p.depth++ }

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// formatList prints count items separated by sep.
func (p *printer) formatList(count int, format func(i int), sep string) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
		}
	}
}

// Write renders decls as a QL library for language.
func Write(w io.Writer, language string, decls []TopLevel) error {
	p := newPrinter()
	p.formatHeader(language)

	for i, decl := range decls {
		switch d := decl.(type) {
		case *Import:
			p.write("import " + d.Module)
			p.writeln()
			if i+1 < len(decls) {
				if _, next := decls[i+1].(*Import); !next {
					p.writeln()
				}
			}
		case *Class:
			p.formatClass(d)
			if i+1 < len(decls) {
				p.writeln()
			}
		default:
			return fmt.Errorf("unsupported declaration %T", decl)
		}
	}

	_, err := w.Write(p.output.Bytes())
	return err
}

// FormatExpression renders a single expression.
func FormatExpression(e Expression) string {
	p := newPrinter()
	p.formatExpr(e, false)
	return p.output.String()
}

func (p *printer) formatHeader(language string) {
	p.write("/*")
	p.writeln()
	p.write(" * CodeQL library for " + language)
	p.writeln()
	p.write(" * Automatically generated from the tree-sitter grammar; do not edit")
	p.writeln()
	p.write(" */")
	p.writeln()
	p.writeln()
}

func (p *printer) formatClass(c *Class) {
	if c.Abstract {
		p.write("abstract ")
	}
	p.write("class " + c.Name)
	if len(c.Supertypes) > 0 {
		p.write(" extends ")
		p.formatList(len(c.Supertypes), func(i int) {
			p.write(c.Supertypes[i].String())
		}, ", ")
	}
	p.write(" {")
	p.writeln()
	p.indent()

	if c.CharPred != nil {
		p.write(c.Name + "() { ")
		p.formatExpr(c.CharPred, true)
		p.write(" }")
		p.writeln()
		if len(c.Predicates) > 0 {
			p.writeln()
		}
	}

	for i := range c.Predicates {
		p.formatPredicate(&c.Predicates[i])
		if i < len(c.Predicates)-1 {
			p.writeln()
		}
	}

	p.dedent()
	p.write("}")
	p.writeln()
}

func (p *printer) formatPredicate(pred *Predicate) {
	if pred.Overridden {
		p.write("override ")
	}
	if pred.ReturnType != nil {
		p.write(pred.ReturnType.String())
	} else {
		p.write("predicate")
	}
	p.write(" " + pred.Name + "(")
	p.formatList(len(pred.Params), func(i int) {
		p.write(pred.Params[i].Type.String() + " " + pred.Params[i].Name)
	}, ", ")
	p.write(") { ")
	p.formatExpr(pred.Body, true)
	p.write(" }")
	p.writeln()
}

// formatExpr prints e. A disjunction is parenthesized unless it is the whole
// body of a predicate.
func (p *printer) formatExpr(e Expression, top bool) {
	switch expr := e.(type) {
	case nil:
		p.write("none()")
	case *Var:
		p.write(expr.Name)
	case *String:
		p.write(`"` + stringEscaper.Replace(expr.Value) + `"`)
	case *Integer:
		p.write(strconv.Itoa(expr.Value))
	case *Equals:
		p.formatExpr(expr.Left, false)
		p.write(" = ")
		p.formatExpr(expr.Right, false)
	case *Pred:
		p.write(expr.Name)
		p.formatArgs(expr.Args)
	case *Dot:
		p.formatExpr(expr.Receiver, false)
		p.write("." + expr.Name)
		p.formatArgs(expr.Args)
	case *Or:
		switch len(expr.Exprs) {
		case 0:
			p.write("none()")
		case 1:
			p.formatExpr(expr.Exprs[0], top)
		default:
			if !top {
				p.write("(")
			}
			p.formatList(len(expr.Exprs), func(i int) {
				p.formatExpr(expr.Exprs[i], false)
			}, " or ")
			if !top {
				p.write(")")
			}
		}
	}
}

func (p *printer) formatArgs(args []Expression) {
	p.write("(")
	p.formatList(len(args), func(i int) {
		p.formatExpr(args[i], false)
	}, ", ")
	p.write(")")
}
