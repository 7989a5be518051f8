package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tarkovmcp/tarkovmcp/internal/core/tarkov"
)

// roubles renders a price as ₽1,234,567.
func roubles(v float64) string {
	return "₽" + grouped(int64(math.Round(v)))
}

func grouped(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}

func signedPercent(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

func trend(v float64) string {
	if v > 0 {
		return "📈"
	}
	return "📉"
}

// priceOrNA renders a positive price, or N/A.
func priceOrNA(obj map[string]any, path ...string) string {
	if v, ok := tarkov.Num(obj, path...); ok && v > 0 {
		return roubles(v)
	}
	return "N/A"
}

func numberOr(obj map[string]any, fallback string, path ...string) string {
	v, ok := tarkov.Num(obj, path...)
	if !ok {
		return fallback
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func intOr(obj map[string]any, def int, path ...string) int {
	v, ok := tarkov.Num(obj, path...)
	if !ok {
		return def
	}
	return int(v)
}

func nameOr(obj map[string]any, fallback string, path ...string) string {
	if s := tarkov.Str(obj, path...); s != "" {
		return s
	}
	return fallback
}

// itemLabel renders "Name (Short)".
func itemLabel(item map[string]any) string {
	name := nameOr(item, "Unknown", "name")
	if short := tarkov.Str(item, "shortName"); short != "" && short != name {
		return fmt.Sprintf("%s (%s)", name, short)
	}
	return name
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func percentChance(v float64) string {
	if v <= 1 {
		v *= 100
	}
	return fmt.Sprintf("%.0f%%", v)
}

func duration(seconds float64) string {
	return (time.Duration(seconds) * time.Second).String()
}

// reportTime renders an upstream millisecond timestamp.
func reportTime(raw string) string {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		if raw == "" {
			return "Unknown time"
		}
		return raw
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}

// itemsValue sums avg24hPrice * count over {count, item} entries.
func itemsValue(entries []map[string]any) float64 {
	var total float64
	for _, entry := range entries {
		price, _ := tarkov.Num(entry, "item", "avg24hPrice")
		total += price * float64(intOr(entry, 1, "count"))
	}
	return total
}
