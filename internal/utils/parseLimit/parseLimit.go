package utils

import (
	"strconv"

	"kbdedup/internal/models"
)

// ParseLimit reads a page size. Garbage and non-positive values mean no
// limit; oversized values are clamped to models.MaxPageLimit.
func ParseLimit(s string) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 {
		return 0
	}

	return min(limit, models.MaxPageLimit)
}

func ParseOffset(s string) int {
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0
	}

	return offset
}

func ParsePage(limit string, offset string) models.DocumentPage {
	return models.DocumentPage{
		Limit:  ParseLimit(limit),
		Offset: ParseOffset(offset),
	}
}
