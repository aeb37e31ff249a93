package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction          = newSemanticError("a grammar needs at least one production")
	semErrReservedName          = newSemanticError("the name is reserved")
	semErrInvalidName           = newSemanticError("a symbol name cannot contain '")
	semErrDuplicateTerminal     = newSemanticError("duplicate terminal")
	semErrDuplicateName         = newSemanticError("duplicate names are not allowed between terminals and non-terminals")
	semErrDuplicateProduction   = newSemanticError("duplicate production")
	semErrDuplicateStart        = newSemanticError("duplicate start symbol")
	semErrUndefinedSym          = newSemanticError("undefined symbol")
	semErrUndefinedStart        = newSemanticError("a start symbol must be a non-terminal having productions")
	semErrUndefinedPrecSym      = newSemanticError("a #prec symbol must be a terminal or a symbol declared in a precedence table")
	semErrInvalidPrecSym        = newSemanticError("a non-terminal cannot have precedence")
	semErrDuplicateAssoc        = newSemanticError("a symbol cannot have more than one precedence")
	semErrNoPattern             = newSemanticError("a skipped terminal needs a pattern")
	semErrTermCannotBeSkipped   = newSemanticError("a terminal used in productions cannot be skipped")
	semErrUnusedTerminal        = newSemanticError("unused terminal")
	semErrUnusedProduction      = newSemanticError("unused production")
	semErrUnproductive          = newSemanticError("a non-terminal cannot derive any string of terminals")
	semErrInvalidAssoc          = newSemanticError("invalid associativity")
	semErrDirInvalidName        = newSemanticError("invalid directive name")
	semErrDirInvalidParam       = newSemanticError("invalid parameter")
	semErrDuplicateDir          = newSemanticError("a directive must not be duplicated")
	semErrLexicalSpecCompileErr = newSemanticError("failed to compile a lexical specification")
)
