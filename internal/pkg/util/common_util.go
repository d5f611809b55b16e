package util

import "strings"

// TrimmedPtr 去除首尾空白，空串返回 nil
func TrimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
