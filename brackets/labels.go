package brackets

import (
	"fmt"
	"strconv"
	"strings"
)

// RoundLabel names a round by the size of the bracket entering it.
func RoundLabel(bracketSize int) string {
	switch bracketSize {
	case 2:
		return "Final"
	case 4:
		return "Semifinal"
	case 8:
		return "Quarterfinal"
	case 16:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round of %d", bracketSize)
	}
}

// RoundSizeFromLabel is the inverse of RoundLabel. Unknown labels map to 0,
// which sorts them after every real round.
func RoundSizeFromLabel(label string) int {
	switch label {
	case "Final":
		return 2
	case "Semifinal":
		return 4
	case "Quarterfinal":
		return 8
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(label, "Round of ")); err == nil {
		return n
	}
	return 0
}
