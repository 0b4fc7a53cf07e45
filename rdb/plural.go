package rdb

import "github.com/jinzhu/inflection"

// Pluralize 英文复数形式，词形不变时追加 "es"
func Pluralize(word string) string {
	plural := inflection.Plural(word)
	if plural == word {
		return word + "es"
	}
	return plural
}
