package ident

import (
	"errors"
	"testing"
)

func TestParseCourseCode(t *testing.T) {
	tests := []struct {
		input   string
		prefix  string
		postfix string
		wantErr bool
	}{
		{input: "CSSE2310", prefix: "CSSE", postfix: "2310"},
		{input: "math1051", prefix: "MATH", postfix: "1051"},
		{input: "CSSE231", wantErr: true},
		{input: "CSSE23100", wantErr: true},
		{input: "CSS12310", wantErr: true},
		{input: "CSSE231O", wantErr: true},
		{input: "CSSE2310 ", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCourseCode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseCourseCode(%q): expected error, got %v", tt.input, got)
			}
			if !errors.Is(err, ErrMalformedCourseCode) {
				t.Fatalf("ParseCourseCode(%q): wrong error type: %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCourseCode(%q): %v", tt.input, err)
		}
		if got.Prefix != tt.prefix || got.Postfix != tt.postfix {
			t.Fatalf("ParseCourseCode(%q) = %v, want %s%s", tt.input, got, tt.prefix, tt.postfix)
		}
	}
}

func TestCourseCodeRoundTrip(t *testing.T) {
	codes := []string{"CSSE2310", "MATH1051", "ABCD0000", "ZZZZ9999"}
	for _, s := range codes {
		first, err := ParseCourseCode(s)
		if err != nil {
			t.Fatalf("ParseCourseCode(%q): %v", s, err)
		}
		second, err := ParseCourseCode(first.String())
		if err != nil {
			t.Fatalf("re-parse of %q: %v", first.String(), err)
		}
		if first != second {
			t.Fatalf("round trip mismatch: %v != %v", first, second)
		}
	}
}

func TestCourseCodeLevel(t *testing.T) {
	c, err := ParseCourseCode("CSSE2310")
	if err != nil {
		t.Fatal(err)
	}
	if c.Level() != 2 {
		t.Fatalf("expected level 2, got %d", c.Level())
	}
}

func TestParseProgramCode(t *testing.T) {
	tests := []struct {
		input   string
		prefix  string
		postfix string
		wantErr bool
	}{
		{input: "BE2001", prefix: "BE", postfix: "2001"},
		{input: "B1", prefix: "B", postfix: "1"},
		{input: "BADVFINMAJ2024", prefix: "BADVFINMAJ", postfix: "2024"},
		{input: "2001", wantErr: true},
		{input: "BE", wantErr: true},
		{input: "BE2001X", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseProgramCode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseProgramCode(%q): expected error, got %v", tt.input, got)
			}
			if !errors.Is(err, ErrMalformedProgramCode) {
				t.Fatalf("ParseProgramCode(%q): wrong error type: %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseProgramCode(%q): %v", tt.input, err)
		}
		if got.Prefix != tt.prefix || got.Postfix != tt.postfix {
			t.Fatalf("ParseProgramCode(%q) = %v", tt.input, got)
		}
	}
}

func TestParsePartLabel(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "A", want: "A"},
		{input: "A.1", want: "A.1"},
		{input: "A.1.b", want: "A.1.b"},
		{input: "A.12.c.3", want: "A.12.c.3"},
		{input: "", wantErr: true},
		{input: "1", wantErr: true},
		{input: "A.", wantErr: true},
		{input: "A..1", wantErr: true},
		{input: "A.1x", wantErr: true},
		{input: "A 1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePartLabel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParsePartLabel(%q): expected error, got %v", tt.input, got)
			}
			if !errors.Is(err, ErrMalformedPartLabel) {
				t.Fatalf("ParsePartLabel(%q): wrong error type: %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePartLabel(%q): %v", tt.input, err)
		}
		if got.String() != tt.want {
			t.Fatalf("ParsePartLabel(%q).String() = %q, want %q", tt.input, got.String(), tt.want)
		}
	}
}

func TestPartLabelRenderIdempotent(t *testing.T) {
	labels := []string{"A", "A.1", "A.1.b", "Z.99.q.1.c"}
	for _, s := range labels {
		first, err := ParsePartLabel(s)
		if err != nil {
			t.Fatalf("ParsePartLabel(%q): %v", s, err)
		}
		second, err := ParsePartLabel(first.String())
		if err != nil {
			t.Fatalf("re-parse of %q: %v", first.String(), err)
		}
		if !first.Equal(second) {
			t.Fatalf("render round trip mismatch for %q: %v != %v", s, first, second)
		}
	}
}
