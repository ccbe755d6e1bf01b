package database

import (
	"fmt"
	"regexp"
)

// identifierPattern is the allow-list for database, table and user
// names. Everything this tool touches is named from this set, so
// anything outside it is treated as hostile rather than quoted around.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidIdentifier reports whether name is safe to use as a SQL
// identifier
func ValidIdentifier(name string) bool {
	return name != "" && len(name) <= 64 && identifierPattern.MatchString(name)
}

// QuoteIdentifier validates name against the allow-list and returns it
// backtick-quoted for interpolation into DDL, where placeholders are
// not available for identifiers.
func QuoteIdentifier(name string) (string, error) {
	if !ValidIdentifier(name) {
		return "", &Error{
			Kind: KindValidation,
			Op:   "quote-identifier",
			Err:  fmt.Errorf("invalid identifier %q", name),
		}
	}
	return "`" + name + "`", nil
}

// QuoteUser validates name and returns the 'name'@'%' account form used
// in CREATE USER and GRANT statements
func QuoteUser(name string) (string, error) {
	if !ValidIdentifier(name) {
		return "", &Error{
			Kind: KindValidation,
			Op:   "quote-user",
			Err:  fmt.Errorf("invalid user name %q", name),
		}
	}
	return "'" + name + "'@'%'", nil
}
