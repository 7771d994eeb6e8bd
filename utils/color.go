package utils

import (
	"fmt"
	"os"
)

const ColorDarkGray = 90

// Colorize wraps s in the escape sequence of color c unless NO_COLOR is set.
func Colorize(s interface{}, c int) string {
	if c == 0 || os.Getenv("NO_COLOR") != "" {
		return fmt.Sprint(s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
