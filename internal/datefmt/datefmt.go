// Package datefmt parses and formats dates using strftime patterns such as
// "%Y%m%d", the format rule sets are authored in.
package datefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// Check reports whether format is a usable strftime pattern.
func Check(format string) error {
	if strings.TrimSpace(format) == "" {
		return fmt.Errorf("empty date format")
	}
	if _, err := strftime.Layout(format); err != nil {
		return fmt.Errorf("date format %q: %w", format, err)
	}
	return nil
}

// Parse parses value (trimmed) with the strftime pattern.
func Parse(format, value string) (time.Time, error) {
	return strftime.Parse(format, strings.TrimSpace(value))
}

// Format renders t with the strftime pattern.
func Format(format string, t time.Time) string {
	return strftime.Format(format, t)
}
