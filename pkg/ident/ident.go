// Package ident parses the identifier grammar shared by degree
// documents: course codes, program/plan codes and hierarchical part
// labels. All parsers consume the whole input or fail.
package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedCourseCode  = errors.New("malformed course code")
	ErrMalformedProgramCode = errors.New("malformed program code")
	ErrMalformedPartLabel   = errors.New("malformed part label")
)

// Units is a semester-unit count.
type Units uint

// Level is a course level: 1000-level courses are level 1, and so on.
type Level uint

// CourseCode is a 4-letter, 4-digit course identifier like CSSE2310.
// The prefix is uppercased at parse time.
type CourseCode struct {
	Prefix  string
	Postfix string
}

func (c CourseCode) String() string {
	return c.Prefix + c.Postfix
}

// Level returns the level implied by the code's leading digit
// (CSSE2310 is a level-2 course).
func (c CourseCode) Level() Level {
	if len(c.Postfix) == 0 {
		return 0
	}
	return Level(c.Postfix[0] - '0')
}

// Less orders codes by (prefix, postfix).
func (c CourseCode) Less(other CourseCode) bool {
	if c.Prefix != other.Prefix {
		return c.Prefix < other.Prefix
	}
	return c.Postfix < other.Postfix
}

// ParseCourseCode parses exactly 4 ASCII letters followed by exactly
// 4 ASCII digits. Anything else, including trailing characters, fails.
func ParseCourseCode(input string) (CourseCode, error) {
	if len(input) != 8 {
		return CourseCode{}, fmt.Errorf("%w: %q", ErrMalformedCourseCode, input)
	}
	for i := 0; i < 4; i++ {
		if !isASCIIAlpha(input[i]) {
			return CourseCode{}, fmt.Errorf("%w: %q", ErrMalformedCourseCode, input)
		}
	}
	for i := 4; i < 8; i++ {
		if !isASCIIDigit(input[i]) {
			return CourseCode{}, fmt.Errorf("%w: %q", ErrMalformedCourseCode, input)
		}
	}
	return CourseCode{
		Prefix:  strings.ToUpper(input[:4]),
		Postfix: input[4:],
	}, nil
}

// ProgramCode is a program or plan identifier: one or more letters
// followed by one or more digits, with no length cap (unlike course
// codes).
type ProgramCode struct {
	Prefix  string
	Postfix string
}

func (p ProgramCode) String() string {
	return p.Prefix + p.Postfix
}

// ParseProgramCode parses 1+ ASCII letters followed by 1+ ASCII digits,
// consuming the whole input.
func ParseProgramCode(input string) (ProgramCode, error) {
	i := 0
	for i < len(input) && isASCIIAlpha(input[i]) {
		i++
	}
	if i == 0 {
		return ProgramCode{}, fmt.Errorf("%w: %q", ErrMalformedProgramCode, input)
	}
	j := i
	for j < len(input) && isASCIIDigit(input[j]) {
		j++
	}
	if j == i || j != len(input) {
		return ProgramCode{}, fmt.Errorf("%w: %q", ErrMalformedProgramCode, input)
	}
	return ProgramCode{Prefix: input[:i], Postfix: input[i:]}, nil
}

// PartSymbol is one element of a part label: either a single character
// or a decimal number.
type PartSymbol struct {
	Char  byte
	Num   int
	IsNum bool
}

func CharSym(c byte) PartSymbol { return PartSymbol{Char: c} }
func NumSym(n int) PartSymbol   { return PartSymbol{Num: n, IsNum: true} }

func (s PartSymbol) String() string {
	if s.IsNum {
		return strconv.Itoa(s.Num)
	}
	return string(s.Char)
}

// PartLabel addresses a node inside a program's requirement tree,
// e.g. "A.1.b". Symbol order is significant and fixed at creation.
type PartLabel []PartSymbol

func (l PartLabel) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Equal compares two labels symbol by symbol.
func (l PartLabel) Equal(other PartLabel) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// ParsePartLabel parses the grammar
//
//	Part   ::= Char Suffix*
//	Suffix ::= "." (Number | Char)
//
// The leading symbol is a single letter. Parsing stops at the first
// character that cannot extend the grammar and fails if any input
// remains.
func ParsePartLabel(input string) (PartLabel, error) {
	if len(input) == 0 || !isASCIIAlpha(input[0]) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedPartLabel, input)
	}
	label := PartLabel{CharSym(input[0])}
	pos := 1
	for pos < len(input) && input[pos] == '.' {
		rest := input[pos+1:]
		if len(rest) == 0 {
			break
		}
		if isASCIIDigit(rest[0]) {
			end := 0
			for end < len(rest) && isASCIIDigit(rest[end]) {
				end++
			}
			n, err := strconv.Atoi(rest[:end])
			if err != nil {
				break
			}
			label = append(label, NumSym(n))
			pos += 1 + end
		} else if isASCIIAlpha(rest[0]) {
			label = append(label, CharSym(rest[0]))
			pos += 2
		} else {
			break
		}
	}
	if pos != len(input) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedPartLabel, input)
	}
	return label, nil
}

func isASCIIAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
