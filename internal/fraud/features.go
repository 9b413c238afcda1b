// Package fraud implements the transaction fraud scorer: parsing the 30
// comma-separated feature values, scoring them with a pretrained classifier,
// and mapping the label to a verdict.
package fraud

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FeatureCount is the number of values the classifier was trained on.
const FeatureCount = 30

// FeatureVector holds Time, V1..V28 and Amount in that order.
type FeatureVector [FeatureCount]float64

var (
	ErrWrongCount = errors.New("wrong feature count")
	ErrNotNumeric = errors.New("non-numeric feature value")
)

type ErrorKind string

const (
	ErrKindWrongCount ErrorKind = "wrong_count"
	ErrKindNotNumeric ErrorKind = "not_numeric"
)

// ParseError reports why raw input could not become a FeatureVector.
type ParseError struct {
	Kind  ErrorKind
	Count int
	Index int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindWrongCount:
		return fmt.Sprintf("expected %d values, got %d", FeatureCount, e.Count)
	case ErrKindNotNumeric:
		return fmt.Sprintf("value %d (%q) is not a number", e.Index+1, e.Token)
	default:
		return "invalid feature input"
	}
}

func (e *ParseError) Unwrap() []error {
	errs := []error{}
	switch e.Kind {
	case ErrKindWrongCount:
		errs = append(errs, ErrWrongCount)
	case ErrKindNotNumeric:
		errs = append(errs, ErrNotNumeric)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage is the text shown next to the input box.
func (e *ParseError) UserMessage() string {
	if e.Kind == ErrKindWrongCount {
		return "You must enter exactly 30 values."
	}
	return "Invalid input format."
}

// ParseFeatures splits raw on commas and parses every token as a float.
// Tokens are parsed before the count is checked, so a bad token wins over a
// wrong count.
func ParseFeatures(raw string) (FeatureVector, error) {
	tokens := strings.Split(raw, ",")
	values := make([]float64, 0, len(tokens))
	for i, token := range tokens {
		trimmed := strings.TrimSpace(token)
		value, err := parseValue(trimmed)
		if err != nil {
			return FeatureVector{}, &ParseError{Kind: ErrKindNotNumeric, Index: i, Token: trimmed, Err: err}
		}
		values = append(values, value)
	}
	if len(values) != FeatureCount {
		return FeatureVector{}, &ParseError{Kind: ErrKindWrongCount, Count: len(values)}
	}

	var vector FeatureVector
	copy(vector[:], values)
	return vector, nil
}

// parseValue accepts the decimal spellings float() accepts: inf and nan
// words, underscores between digits, and magnitudes past float64 as ±Inf.
// Hex floats are rejected.
func parseValue(token string) (float64, error) {
	unsigned := strings.TrimLeft(token, "+-")
	if len(unsigned) > 1 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: token, Err: strconv.ErrSyntax}
	}
	if strings.Contains(token, "_") {
		if !underscoresBetweenDigits(token) {
			return 0, &strconv.NumError{Func: "ParseFloat", Num: token, Err: strconv.ErrSyntax}
		}
		token = strings.ReplaceAll(token, "_", "")
	}
	value, err := strconv.ParseFloat(token, 64)
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return value, nil
	}
	return value, err
}

func underscoresBetweenDigits(token string) bool {
	for i := 0; i < len(token); i++ {
		if token[i] != '_' {
			continue
		}
		if i == 0 || i == len(token)-1 || !isDigit(token[i-1]) || !isDigit(token[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

func (v FeatureVector) String() string {
	parts := make([]string, FeatureCount)
	for i, value := range v {
		parts[i] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// FeatureNames returns the column order expected by the classifier.
func FeatureNames() []string {
	names := make([]string, 0, FeatureCount)
	names = append(names, "Time")
	for i := 1; i <= 28; i++ {
		names = append(names, fmt.Sprintf("V%d", i))
	}
	return append(names, "Amount")
}
