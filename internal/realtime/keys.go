package realtime

import "strings"

const maxNodeKeyLength = 120

var nodeKeyReplacer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
	"/", "_",
)

// NodeKey makes input safe as a hash field or key segment. A blank input maps
// to "_".
func NodeKey(input string) string {
	key := nodeKeyReplacer.Replace(strings.TrimSpace(input))
	if runes := []rune(key); len(runes) > maxNodeKeyLength {
		key = string(runes[:maxNodeKeyLength])
	}
	if strings.TrimSpace(key) == "" {
		return "_"
	}
	return key
}
