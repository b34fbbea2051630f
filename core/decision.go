package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dynbike/dynbike/schema"
)

// ParseDecision interprets an operator response against a model with n segments.
// Accepted forms are an empty line, "stop", "all", a 1-based segment index, or a
// comma-separated list of indices selecting a subset of segments to split out.
func ParseDecision(raw string, n int) (schema.Decision, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch text {
	case "":
		return schema.Decision{Kind: schema.DecideSuspend}, nil
	case "stop":
		return schema.Decision{Kind: schema.DecideStop}, nil
	case "all":
		return schema.Decision{Kind: schema.DecideAll}, nil
	}

	if strings.Contains(text, ",") {
		// "all 1,3" and "1,3" select the same segments.
		if rest, ok := strings.CutPrefix(text, "all"); ok && rest != strings.TrimLeft(rest, " \t") {
			text = strings.TrimSpace(rest)
		}
		selected, err := parseSegmentList(raw, text, n)
		if err != nil {
			return schema.Decision{}, err
		}
		return schema.Decision{Kind: schema.DecideAll, Segments: selected}, nil
	}

	k, err := parseSegmentIndex(raw, text, n)
	if err != nil {
		return schema.Decision{}, err
	}
	return schema.Decision{Kind: schema.DecideCut, Segment: k}, nil
}

func parseSegmentIndex(raw, text string, n int) (int, error) {
	k, err := strconv.Atoi(text)
	if err != nil {
		return 0, &OperatorInputError{Response: raw, Reason: "expected a segment number, \"stop\", \"all\" or an empty line"}
	}
	if k < 1 || k > n {
		return 0, &OperatorInputError{Response: raw, Reason: fmt.Sprintf("segment must be between 1 and %d", n)}
	}
	return k, nil
}

func parseSegmentList(raw, text string, n int) ([]int, error) {
	var out []int
	for part := range strings.SplitSeq(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := parseSegmentIndex(raw, part, n)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, &OperatorInputError{Response: raw, Reason: "empty segment list"}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
