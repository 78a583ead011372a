package service

import "strings"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// trimmed returns nil for a missing or blank string
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// pageBounds converts a 1-based page into limit and offset
func pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}
