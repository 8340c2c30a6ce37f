package sheets

import (
	"fmt"
	"strings"
)

// Field is a logical column of the task sheet. Operators rename and
// reorder columns freely, so positions are never hard-coded; headers
// are matched against the alias table below instead.
type Field string

const (
	FieldSerial      Field = "serial"
	FieldTopic       Field = "topic"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldYouTube     Field = "youtube"
	FieldInstagram   Field = "instagram"
	FieldFacebook    Field = "facebook"
	FieldTimestamp   Field = "timestamp"
)

// fieldAliases maps each logical field to the header keywords that
// identify it. Matching is case-insensitive substring.
var fieldAliases = map[Field][]string{
	FieldSerial:      {"sno", "s.no", "serial"},
	FieldTopic:       {"idea", "topic", "title"},
	FieldDescription: {"desc"},
	FieldStatus:      {"status"},
	FieldYouTube:     {"yt", "youtube", "video link"},
	FieldInstagram:   {"insta", "instagram"},
	FieldFacebook:    {"fb", "facebook"},
	FieldTimestamp:   {"timestamp", "date"},
}

// requiredFields must resolve or the store cannot be opened.
var requiredFields = []Field{FieldTopic, FieldStatus}

// columnMap holds resolved 0-based column indexes per logical field.
// Optional fields that did not resolve are absent.
type columnMap map[Field]int

// resolveColumns matches the header row against the alias table once,
// at store-open time. A missing required column is an immediate error
// rather than a surprise on the first write.
func resolveColumns(headers []string) (columnMap, error) {
	cols := make(columnMap)
	claimed := make(map[int]bool)

	for _, field := range []Field{
		FieldSerial, FieldTopic, FieldDescription, FieldStatus,
		FieldYouTube, FieldInstagram, FieldFacebook, FieldTimestamp,
	} {
		idx := findHeader(headers, fieldAliases[field], claimed)
		if idx >= 0 {
			cols[field] = idx
			claimed[idx] = true
		}
	}

	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			return nil, fmt.Errorf("required column %q not found in headers %v (known aliases: %v)",
				field, headers, fieldAliases[field])
		}
	}
	return cols, nil
}

func findHeader(headers []string, aliases []string, claimed map[int]bool) int {
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(h))
		if lower == "" {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(lower, alias) {
				return i
			}
		}
	}
	return -1
}

// colLetter converts a 0-based column index to its A1-notation letter.
func colLetter(idx int) string {
	n := idx + 1
	var result string
	for n > 0 {
		n--
		result = string(rune('A'+n%26)) + result
		n /= 26
	}
	return result
}
