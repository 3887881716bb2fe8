// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"fmt"
	"strings"
)

// Category identifies a type of upstream data.
type Category string

// Upstream categories.
const (
	CategoryProfile    Category = "profile"
	CategoryDevices    Category = "devices"
	CategoryFriends    Category = "friends"
	CategorySleep      Category = "sleep"
	CategoryHeart      Category = "heart"
	CategoryActivities Category = "activities"
	CategoryFood       Category = "food"
)

// allCategories lists every category the request builder understands.
var allCategories = []Category{
	CategoryProfile,
	CategoryDevices,
	CategoryFriends,
	CategorySleep,
	CategoryHeart,
	CategoryActivities,
	CategoryFood,
}

// Categories returns every known category.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Dated reports whether requests for c carry a calendar day.
func (c Category) Dated() bool {
	switch c {
	case CategorySleep, CategoryHeart, CategoryActivities, CategoryFood:
		return true
	default:
		return false
	}
}

// Ingestable reports whether the orchestrator can persist records of c.
func (c Category) Ingestable() bool {
	return c == CategorySleep || c == CategoryHeart
}

// Title is the capitalized name used in operational responses ("Sleep", "Heart").
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (c Category) String() string {
	return string(c)
}
