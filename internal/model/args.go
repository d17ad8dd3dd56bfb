package model

import "strings"

const PersonaDevSecOps = "devsecops"

// Persona returns the value of the first --persona=<value> token of
// additional workflow arguments. Tokens are separated by single spaces.
// A --persona token without a value is reported as absent.
func Persona(args string) (string, bool) {
	for _, token := range strings.Split(args, " ") {
		name, value, ok := strings.Cut(token, "=")
		if name != "--persona" {
			continue
		}
		if !ok {
			return "", false
		}
		// only the part up to a next '=' is the value
		value, _, _ = strings.Cut(value, "=")
		return value, true
	}
	return "", false
}

// SplitArgs splits additional workflow arguments on white space. Quotes are
// not interpreted, so values containing spaces end up in separate arguments.
func SplitArgs(args string) []string {
	return strings.Fields(args)
}
