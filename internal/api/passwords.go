package api

import (
	"strings" // Case folding
	"unicode" // Digit checks
)

const minPasswordLength = 8

// commonPasswords is a short deny list of the most leaked passwords
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 123456789 12345678 password qwerty123 qwerty 1q2w3e4r 111111 123123 1234567890
		password1 abc123 iloveyou 000000 qwertyuiop 1qaz2wsx 123qwe zaq12wsx dragon sunshine
		princess letmein 654321 monkey football baseball welcome welcome1 admin123 administrator
		passw0rd password123 master trustno1 superman batman starwars whatever shadow michael
		freedom charlie jennifer hunter2 changeme secret123 football1 qwerty12 asdfghjkl
		computer internet mustang access696 photoshop 1234qwer q1w2e3r4 aa123456 p@ssw0rd
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// passwordProblem returns why password is unacceptable, or "" when it is fine
func passwordProblem(password, username string) string {
	if len([]rune(password)) < minPasswordLength {
		return "This password is too short. It must contain at least 8 characters."
	}
	if isNumeric(password) {
		return "This password is entirely numeric."
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return "This password is too common."
	}
	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return "The password is too similar to the username."
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
