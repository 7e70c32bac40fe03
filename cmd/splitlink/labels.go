package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayLabel turns wire tags such as "connection_lost" into "Connection Lost".
func displayLabel(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", " "))
	if tag == "" {
		return "-"
	}
	return cases.Title(language.Und).String(tag)
}
