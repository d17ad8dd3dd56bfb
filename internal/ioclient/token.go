package ioclient

import "strings"

const accessTokenKey = "access_token="

// ExtractAccessToken returns the text following the last access_token= of a
// header line up to the next ';', with leading blanks removed. An empty
// string means there is no token.
func ExtractAccessToken(line string) string {
	idx := strings.LastIndex(line, accessTokenKey)
	if idx < 0 {
		return ""
	}
	value := strings.TrimLeft(line[idx+len(accessTokenKey):], " ")
	value, _, _ = strings.Cut(value, ";")
	return strings.TrimSpace(value)
}
