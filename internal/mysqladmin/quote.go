package mysqladmin

import (
	"regexp"
	"strings"
)

var (
	namePattern      = regexp.MustCompile(`^[A-Za-z0-9_$-]{1,64}$`)
	privilegePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z _]*(,\s*[A-Za-z][A-Za-z _]*)*$`)

	literal        = `('(?:[^'\\]|\\.|'')*'|"(?:[^"\\]|\\.|"")*")`
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\bIDENTIFIED\s+(?:WITH\s+\S+\s+)?(?:BY|AS)\s+)` + literal),
		regexp.MustCompile(`(?i)(\bSET\s+PASSWORD\b[^=]*=\s*)` + literal),
	}
)

// ValidName reports whether v is usable as a database, table or user name.
func ValidName(v string) bool {
	return namePattern.MatchString(v)
}

// ValidPrivileges reports whether v is a comma separated privilege list such
// as "SELECT, INSERT".
func ValidPrivileges(v string) bool {
	return privilegePattern.MatchString(v)
}

// Redact masks password literals in statement so it can be logged.
func Redact(statement string) string {
	for _, next := range secretPatterns {
		statement = next.ReplaceAllString(statement, "${1}'***'")
	}
	return statement
}

func quoteIdent(v string) string {
	return "`" + strings.ReplaceAll(v, "`", "``") + "`"
}

func quoteString(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
