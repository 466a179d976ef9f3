package calendar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/ringconv/core/errors"
)

// yearExpr is a single year as written in headers and user input.
// Examples: 1990, -45, 45BC, 1990 AD, c.1450AD, r.12
type yearExpr struct {
	Prefix string `parser:"@Prefix?"`
	Minus  bool   `parser:"@\"-\"?"`
	Number int    `parser:"@Number"`
	Era    string `parser:"@Era?"`
}

// rangeExpr is two years with an optional dash between them.
// Examples: 1990-1999, 45BC - 12AD, " 1990 1999"
type rangeExpr struct {
	Start *yearExpr `parser:"@@"`
	Dash  bool      `parser:"@\"-\"?"`
	End   *yearExpr `parser:"@@"`
}

// yearLexer tokenizes year expressions.
var yearLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Dating prefixes must be matched before eras so "c." is not read as "CE"
	{Name: "Prefix", Pattern: `(?i)[cr]\.`},
	{Name: "Era", Pattern: `(?i)(BCE|BC|AD|CE)`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var yearParser = participle.MustBuild[yearExpr](
	participle.Lexer(yearLexer),
	participle.Elide("Whitespace"),
)

var rangeParser = participle.MustBuild[rangeExpr](
	participle.Lexer(yearLexer),
	participle.Elide("Whitespace"),
)

// ParseYear parses a year string, ignoring any dating prefix.
func ParseYear(s string) (Year, error) {
	y, _, err := ParseDated(s)
	return y, err
}

// ParseDated parses a year string and reports the dating type implied by
// its prefix. Relative years ("r.12") carry no era.
func ParseDated(s string) (Year, DatingType, error) {
	expr, err := yearParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return DefaultYear, DatingAbsolute, errors.NewParse("year", "", fmt.Sprintf("%q: %v", s, err))
	}
	return expr.resolve()
}

// ParseRange parses a year range such as "1990-1999" or "45BC - 12AD".
func ParseRange(s string) (YearRange, error) {
	expr, err := rangeParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return EmptyRange, errors.NewParse("year range", "", fmt.Sprintf("%q: %v", s, err))
	}
	start, _, err := expr.Start.resolve()
	if err != nil {
		return EmptyRange, err
	}
	end, _, err := expr.End.resolve()
	if err != nil {
		return EmptyRange, err
	}
	return NewRange(start, end), nil
}

func (e *yearExpr) resolve() (Year, DatingType, error) {
	dating := DatingAbsolute
	switch strings.ToLower(e.Prefix) {
	case RelativePrefix:
		dating = DatingRelative
	case UncertainPrefix:
		dating = DatingUncertain
	}

	n := e.Number
	era := strings.ToUpper(e.Era)
	switch {
	case era == "" && e.Minus:
		n = -n
	case era == "":
	case dating == DatingRelative:
		return DefaultYear, dating, errors.NewValidation("year", "relative years take no era")
	case e.Minus:
		return DefaultYear, dating, errors.NewValidation("year", "signed year with an era suffix")
	case era == "BC" || era == "BCE":
		n = -n
	}

	y, err := NewYear(n)
	return y, dating, err
}
