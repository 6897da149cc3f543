package utils

import "strings"

// LikeEscape is the escape character of ContainsPattern. '!' has no special
// meaning inside MySQL string literals, unlike a backslash.
const LikeEscape = "!"

var likeReplacer = strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_")

// ContainsPattern builds a lowercased LIKE pattern matching term as a plain
// substring. Use it with "LOWER(col) LIKE ? ESCAPE '!'".
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
