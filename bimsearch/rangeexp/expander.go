// Package rangeexp expands a from/to pair of alphanumeric identifiers into
// the concrete ordered set of identifiers between them, e.g. "RM-01".."RM-05".
package rangeexp

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrTokenCountMismatch means the two bounds carry a different number of digit runs.
	ErrTokenCountMismatch = errors.New("rangeexp: bounds have different digit run counts")
	// ErrMultipleTokensDiffer means more than one digit run differs between the bounds,
	// so the intended axis of the range is ambiguous.
	ErrMultipleTokensDiffer = errors.New("rangeexp: more than one digit run differs")
	// ErrBoundsDiffer means no digit run differs numerically yet the bounds are not
	// the same string, so there is nothing to enumerate.
	ErrBoundsDiffer = errors.New("rangeexp: bounds differ outside digit runs")
	// ErrSpanTooLarge means the numeric distance between the bounds exceeds MaxSpan.
	ErrSpanTooLarge = errors.New("rangeexp: span exceeds limit")
)

// MaxSpan bounds the number of identifiers a single expansion may produce.
const MaxSpan = 100000

type digitRun struct {
	start int // offset of the run within the identifier
	text  string
	value int64
}

// Expand materializes the ordered identifier sequence between start and end
// inclusive. Exactly one digit run may differ between the two bounds; its
// position in start supplies the zero-padding width and the surrounding
// prefix/suffix. Equal bounds expand to a single-element sequence.
func Expand(start, end string) ([]string, error) {
	startRuns, err := extractRuns(start)
	if err != nil {
		return nil, err
	}
	endRuns, err := extractRuns(end)
	if err != nil {
		return nil, err
	}
	if len(startRuns) != len(endRuns) {
		return nil, ErrTokenCountMismatch
	}

	differing := -1
	for i := range startRuns {
		if startRuns[i].value == endRuns[i].value {
			continue
		}
		if differing >= 0 {
			return nil, ErrMultipleTokensDiffer
		}
		differing = i
	}

	if differing < 0 {
		if start != end {
			return nil, ErrBoundsDiffer
		}
		return []string{start}, nil
	}

	run := startRuns[differing]
	lo, hi := run.value, endRuns[differing].value
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo+1 > MaxSpan {
		return nil, ErrSpanTooLarge
	}

	prefix := start[:run.start]
	suffix := start[run.start+len(run.text):]
	width := len(run.text)

	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, fmt.Sprintf("%s%0*d%s", prefix, width, i, suffix))
	}
	return out, nil
}

func extractRuns(s string) ([]digitRun, error) {
	var runs []digitRun
	i := 0
	for i < len(s) {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		value, err := strconv.ParseInt(s[i:j], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rangeexp: digit run %q in %q: %w", s[i:j], s, err)
		}
		runs = append(runs, digitRun{start: i, text: s[i:j], value: value})
		i = j
	}
	return runs, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
