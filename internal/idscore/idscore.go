// Package idscore validates and scores 13-digit identity numbers captured at signup.
//
// The package is pure: it performs no I/O and receives the evaluation instant as a
// parameter so results are reproducible in tests.
package idscore

import (
	"fmt"
	"strconv"
	"time"
)

// Length is the number of digits an identity number must have.
const Length = 13

// PassScore is the minimum score for a passing evaluation.
const PassScore = 40

// MaxScore is the highest score Evaluate can award.
const MaxScore = formatPoints + agePoints + citizenshipPoints + checksumPoints

const (
	formatPoints      = 10
	agePoints         = 15
	citizenshipPoints = 5
	checksumPoints    = 20

	// two-digit years up to this value belong to the 2000s.
	centuryPivot = 21
)

// MinAge and MaxAge bound the age band that earns the age points.
const (
	MinAge = 13
	MaxAge = 25
)

// Messages emitted by Evaluate.
const (
	MsgBadFormat        = "ID must be 13 digits"
	MsgInvalidBirthDate = "invalid birth date in ID"
	MsgBadCitizenship   = "invalid citizenship digit"
	MsgBadChecksum      = "checksum invalid"
)

// Result is the outcome of scoring an identity number.
type Result struct {
	Score     int        `json:"score"`
	Age       *int       `json:"age,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Messages  []string   `json:"messages"`
	Passed    bool       `json:"passed"`
}

// AgeInRange reports whether the derived age is present and within the accepted band.
func (r Result) AgeInRange() bool {
	return r.Age != nil && *r.Age >= MinAge && *r.Age <= MaxAge
}

// EvaluateNow scores id against the current wall clock.
func EvaluateNow(id string) Result {
	return Evaluate(id, time.Now())
}

// Evaluate scores id as of now. It never panics; every failure is reported as a
// message and a reduced score.
func Evaluate(id string, now time.Time) Result {
	res := Result{Messages: []string{}}

	if !isDigits(id, Length) {
		res.Messages = append(res.Messages, MsgBadFormat)
		return res
	}
	res.Score += formatPoints

	birth, ok := BirthDate(id)
	if !ok {
		res.Messages = append(res.Messages, MsgInvalidBirthDate)
		return res
	}
	res.BirthDate = &birth

	age := AgeAt(birth, now)
	res.Age = &age
	if age >= MinAge && age <= MaxAge {
		res.Score += agePoints
	} else {
		res.Messages = append(res.Messages, fmt.Sprintf("age %d not in %d-%d range", age, MinAge, MaxAge))
	}

	if c := id[10]; c == '0' || c == '1' {
		res.Score += citizenshipPoints
	} else {
		res.Messages = append(res.Messages, MsgBadCitizenship)
	}

	if ValidChecksum(id) {
		res.Score += checksumPoints
	} else {
		res.Messages = append(res.Messages, MsgBadChecksum)
	}

	res.Passed = res.Score >= PassScore
	return res
}

// BirthDate decodes the YYMMDD prefix of id. It returns false when the prefix is not
// a real calendar date.
func BirthDate(id string) (time.Time, bool) {
	if len(id) < 6 || !isDigits(id[:6], 6) {
		return time.Time{}, false
	}
	yy := atoi2(id[0:2])
	month := atoi2(id[2:4])
	day := atoi2(id[4:6])

	year := 1900 + yy
	if yy <= centuryPivot {
		year = 2000 + yy
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (31 Feb -> 3 Mar); reject anything that moved.
	if date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// AgeAt returns the number of full years between birth and now using anniversary
// semantics: the age increments on the birthday itself.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// CheckDigit computes the expected 13th digit for a 12-digit prefix. The second
// return value is false when the prefix is malformed.
func CheckDigit(prefix string) (int, bool) {
	if !isDigits(prefix, Length-1) {
		return 0, false
	}

	sumOdd := 0
	even := make([]byte, 0, 6)
	for i := 0; i < len(prefix); i++ {
		if i%2 == 0 {
			sumOdd += int(prefix[i] - '0')
		} else {
			even = append(even, prefix[i])
		}
	}
	if len(even) == 0 {
		return 0, false
	}

	n, err := strconv.ParseUint(string(even), 10, 64)
	if err != nil {
		return 0, false
	}
	doubled := strconv.FormatUint(n*2, 10)
	if doubled == "" {
		return 0, false
	}
	sumEven := 0
	for i := 0; i < len(doubled); i++ {
		sumEven += int(doubled[i] - '0')
	}

	total := sumOdd + sumEven
	return (10 - total%10) % 10, true
}

// ValidChecksum reports whether the last digit of id matches CheckDigit of its prefix.
func ValidChecksum(id string) bool {
	if !isDigits(id, Length) {
		return false
	}
	expected, ok := CheckDigit(id[:Length-1])
	if !ok {
		return false
	}
	return expected == int(id[Length-1]-'0')
}

// Complete appends the check digit to a 12-digit prefix.
func Complete(prefix string) (string, error) {
	digit, ok := CheckDigit(prefix)
	if !ok {
		return "", fmt.Errorf("idscore: prefix must be %d digits", Length-1)
	}
	return prefix + strconv.Itoa(digit), nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
