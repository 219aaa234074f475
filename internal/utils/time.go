package utils

import "time"

const layoutDate = "2006-01-02"

// FormatDate formats t as YYYY-MM-DD in the local timezone.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(layoutDate)
}
