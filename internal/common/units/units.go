// Package units renders and parses the resource-usage strings reported by the
// judge. Rendering is strict about absent data; parsing is best effort and is
// only used for aggregation.
package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const kbPerMB = 1024

var memoryPattern = regexp.MustCompile(`(?i)^\s*([0-9]*\.?[0-9]+)\s*(KB|MB|GB)?\s*$`)

// FormatKB renders a kilobyte value, switching to megabytes at 1024 KB.
func FormatKB(kb float64) string {
	if kb >= kbPerMB {
		return fmt.Sprintf("%.2f MB", kb/kbPerMB)
	}
	return fmt.Sprintf("%.2f KB", kb)
}

// FormatMemory renders a raw kilobyte value. ok is false for empty or
// non-numeric input, which callers must treat as "no data", not zero.
func FormatMemory(raw string) (s string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	kb, ok := parseFinite(raw)
	if !ok || kb < 0 {
		return "", false
	}
	return FormatKB(kb), true
}

// parseFinite rejects NaN and infinities, which ParseFloat accepts.
func parseFinite(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatMemoryKB is FormatMemory for the judge's nullable integer field.
func FormatMemoryKB(kb *int) (string, bool) {
	if kb == nil {
		return "", false
	}
	return FormatKB(float64(*kb)), true
}

// ToKB parses "<number> (KB|MB|GB)?" back to kilobytes. The unit defaults to
// KB. Unparseable input yields 0.
func ToKB(display string) float64 {
	m := memoryPattern.FindStringSubmatch(display)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "MB":
		return v * kbPerMB
	case "GB":
		return v * kbPerMB * kbPerMB
	}
	return v
}

// FormatSeconds renders the judge's wall time ("0.002") as "0.002 s".
func FormatSeconds(raw *string) (string, bool) {
	if raw == nil {
		return "", false
	}
	v := strings.TrimSpace(*raw)
	if sec, ok := parseFinite(v); !ok || sec < 0 {
		return "", false
	}
	return v + " s", true
}

// FormatTotalSeconds renders an aggregated duration.
func FormatTotalSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64) + " s"
}

// ToSeconds parses a FormatSeconds string (unit suffix optional). Unparseable
// input yields 0.
func ToSeconds(display string) float64 {
	v := strings.TrimSpace(display)
	v = strings.TrimSpace(strings.TrimSuffix(v, "s"))
	sec, ok := parseFinite(v)
	if !ok || sec < 0 {
		return 0
	}
	return sec
}
