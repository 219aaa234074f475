package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPrice renders a whole-dollar amount with thousands separators and an
// optional suffix, e.g. FormatPrice(2500, "/mo") == "$2,500/mo".
func FormatPrice(amount float64, suffix string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s$%s%s", sign, formatThousand(int64(math.Round(amount))), suffix)
}

func formatThousand(n int64) string {
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
