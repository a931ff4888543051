package domain

import "strings"

// categoryIDs maps the slugs accepted by the API to question source category ids.
var categoryIDs = map[string]string{
	"general": "9",
	"music":   "12",
	"science": "17",
	"sports":  "21",
	"history": "23",
}

// categoryNames maps stored category codes to display names.
var categoryNames = map[string]string{
	"9":  "General Knowledge",
	"12": "Music",
	"17": "Science",
	"21": "Sports",
	"23": "History",
}

// CategoryID resolves a slug or numeric id to the source category id.
// Unknown values resolve to "" (no category filter).
func CategoryID(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if id, ok := categoryIDs[c]; ok {
		return id
	}
	if _, ok := categoryNames[c]; ok {
		return c
	}
	return ""
}

// CategoryName returns the display name for a stored category code.
// Unmapped codes pass through verbatim.
func CategoryName(code string) string {
	if name, ok := categoryNames[code]; ok {
		return name
	}
	if id, ok := categoryIDs[strings.ToLower(code)]; ok {
		return categoryNames[id]
	}
	return code
}
