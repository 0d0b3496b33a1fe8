package utils

import "time"

const DateLayout = "2006-01-02"

func Now() time.Time {
	return time.Now().UTC()
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
