package domain

import (
	"strconv"
	"strings"
)

// Output handle identifiers. Each one is a branch out of a node.
const (
	HandleYes          = "yes"
	HandleNo           = "no"
	HandleTextOutput   = "text-output"
	HandleMultiAll     = "multi-all"
	HandleOptionPrefix = "option-"
)

// Labels produced for the fixed handles.
const (
	LabelYes         = "Yes"
	LabelNo          = "No"
	LabelAnyText     = "Any Text"
	LabelAllSelected = "All Selected"
	LabelDefault     = "Default"
)

// OptionHandle returns the handle of the option at index i.
func OptionHandle(i int) string {
	return HandleOptionPrefix + strconv.Itoa(i)
}

// ParseOptionHandle extracts the option index from an "option-<i>" handle.
// Only the canonical form produced by OptionHandle is accepted: decimal
// digits without sign or leading zeros.
func ParseOptionHandle(handle string) (int, bool) {
	rest, ok := strings.CutPrefix(handle, HandleOptionPrefix)
	if !ok || rest == "" || (len(rest) > 1 && rest[0] == '0') {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}
