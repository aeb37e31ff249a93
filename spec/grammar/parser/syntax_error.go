package parser

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrInvalidToken      = newSyntaxError("invalid token")
	synErrUnclosedPattern   = newSyntaxError("unclosed pattern")
	synErrUnclosedString    = newSyntaxError("unclosed string")
	synErrEmptyPattern      = newSyntaxError("a pattern must include at least one character")
	synErrEmptyString       = newSyntaxError("a string must include at least one character")
	synErrIncompletedEscSeq = newSyntaxError("incompleted escape sequence; unexpected EOF following a backslash")

	// syntax errors
	synErrTopLevelDirNoSemicolon = newSyntaxError("a top-level directive must be followed by ;")
	synErrNoProductionName       = newSyntaxError("a production name is missing")
	synErrNoColon                = newSyntaxError("the colon must precede alternatives")
	synErrNoSemicolon            = newSyntaxError("the semicolon is missing at the last of an alternative")
	synErrUnclosedDirGroup       = newSyntaxError("a directive group must be closed by )")
	synErrNestedDirGroup         = newSyntaxError("a directive group cannot contain another group")
	synErrDirGroupNoDirective    = newSyntaxError("a directive group can contain only directives")
	synErrPatternInAlt           = newSyntaxError("a pattern literal cannot appear directly in an alternative. instead, please define a terminal symbol with the pattern literal")
	synErrElemAfterDirective     = newSyntaxError("a symbol cannot follow directives of an alternative")
)
