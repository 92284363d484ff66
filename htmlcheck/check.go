package htmlcheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// checkedKey marks a poster whose body has already been checked.
type checkedKey struct{}

// CheckedKey is the poster.ExtendedData key under which the build records
// that a poster went through the checker.
var CheckedKey any = checkedKey{}

// Problem is one finding. Line and Column are 1-based; both are zero for
// document-level problems.
type Problem struct {
	Reason string
	Line   int
	Column int
}

func (p Problem) String() string {
	if p.Line == 0 {
		return p.Reason
	}
	return fmt.Sprintf("%d:%d: %s", p.Line, p.Column, p.Reason)
}

// Element is a start tag in document order.
type Element struct {
	Atom   atom.Atom
	Name   string
	Line   int
	Column int
}

// Rule inspects the elements of one document.
type Rule interface {
	Check(elems []Element) []Problem
}

// Checker runs a set of rules over HTML text.
type Checker struct {
	Rules []Rule

	// StopOnFirst makes Check return after the first rule that reports.
	StopOnFirst bool
}

// New returns a checker with every built-in rule.
func New() *Checker {
	return &Checker{Rules: []Rule{HeadingRule{}}}
}

// Check tokenizes text and runs the rules. It returns nil for a clean
// document.
func (c *Checker) Check(text string) ([]Problem, error) {
	elems, err := Elements(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	var problems []Problem
	for _, r := range c.Rules {
		found := r.Check(elems)
		problems = append(problems, found...)
		if len(found) > 0 && c.StopOnFirst {
			break
		}
	}
	return problems, nil
}

// Elements returns the start tags of r with their positions.
func Elements(r io.Reader) ([]Element, error) {
	z := html.NewTokenizer(r)
	line, col := 1, 1
	var elems []Element
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			return elems, nil
		}
		raw := z.Raw()
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			elems = append(elems, Element{
				Atom:   atom.Lookup(name),
				Name:   string(name),
				Line:   line,
				Column: col,
			})
		}
		line, col = advance(line, col, raw)
	}
}

func advance(line, col int, raw []byte) (int, int) {
	n := bytes.Count(raw, []byte{'\n'})
	if n == 0 {
		return line, col + len([]rune(string(raw)))
	}
	last := raw[bytes.LastIndexByte(raw, '\n')+1:]
	return line + n, 1 + len([]rune(string(last)))
}

// HeadingRule checks the heading outline: exactly one <h1>, nothing
// before it and no skipped levels.
type HeadingRule struct{}

func (HeadingRule) Check(elems []Element) []Problem {
	var (
		problems []Problem
		used     int
		hasH1    bool
	)
	for _, e := range elems {
		level := headingLevel(e.Atom)
		if level == 0 {
			continue
		}
		switch {
		case level == 1 && hasH1:
			problems = append(problems, e.problem("too many <h1> element(one is good)"))
		case level == 1:
			hasH1 = true
			if used != 0 {
				problems = append(problems, e.problem("some heading(<hx>) element before <h1>"))
			}
		case used+1 < level:
			problems = append(problems, e.problem(fmt.Sprintf("using <h%d> before using <h%d>!", used+1, level)))
		}
		used = level
	}
	if !hasH1 {
		problems = append(problems, Problem{Reason: "not found <h1> element(one is good)"})
	}
	return problems
}

func (e Element) problem(reason string) Problem {
	return Problem{Reason: reason, Line: e.Line, Column: e.Column}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	default:
		return 0
	}
}
