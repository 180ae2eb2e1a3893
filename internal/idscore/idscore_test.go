package idscore

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalDay = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		id       string
		score    int
		age      *int
		passed   bool
		messages []string
	}{
		{name: "all checks pass", id: "0406015800088", score: 50, age: intPtr(20), passed: true, messages: []string{}},
		{name: "leap day birth", id: "0002295000083", score: 50, age: intPtr(24), passed: true, messages: []string{}},
		{name: "bad checksum", id: "0406015800086", score: 30, age: intPtr(20), messages: []string{MsgBadChecksum}},
		{name: "bad citizenship still passes", id: "0406015800286", score: 45, age: intPtr(20), passed: true, messages: []string{MsgBadCitizenship}},
		{name: "too old", id: "9001015000085", score: 35, age: intPtr(34), messages: []string{"age 34 not in 13-25 range"}},
		{name: "too young", id: "1503015000088", score: 35, age: intPtr(9), messages: []string{"age 9 not in 13-25 range"}},
		{name: "month out of range", id: "0413015800088", score: 10, messages: []string{MsgInvalidBirthDate}},
		{name: "february 29 on common year", id: "0102295000088", score: 10, messages: []string{MsgInvalidBirthDate}},
		{name: "day zero", id: "0406005800088", score: 10, messages: []string{MsgInvalidBirthDate}},
		{name: "too short", id: "12345", messages: []string{MsgBadFormat}},
		{name: "too long", id: "04060158000881", messages: []string{MsgBadFormat}},
		{name: "letters", id: "04060158000a8", messages: []string{MsgBadFormat}},
		{name: "empty", id: "", messages: []string{MsgBadFormat}},
		{name: "multibyte padding", id: "040601580008٨", messages: []string{MsgBadFormat}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(tc.id, evalDay)
			assert.Equal(t, tc.score, res.Score)
			assert.Equal(t, tc.passed, res.Passed)
			assert.Equal(t, tc.messages, res.Messages)
			if tc.age == nil {
				assert.Nil(t, res.Age)
			} else {
				require.NotNil(t, res.Age)
				assert.Equal(t, *tc.age, *res.Age)
			}
		})
	}
}

func TestEvaluateCenturyPivot(t *testing.T) {
	birth, ok := BirthDate("210101")
	require.True(t, ok)
	assert.Equal(t, 2021, birth.Year())

	birth, ok = BirthDate("220101")
	require.True(t, ok)
	assert.Equal(t, 1922, birth.Year())
}

func TestAgeAnniversary(t *testing.T) {
	birth := time.Date(2006, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 18, AgeAt(birth, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 17, AgeAt(birth, time.Date(2024, time.June, 14, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 18, AgeAt(birth, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))

	res := Evaluate("0606155000080", time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, res.Age)
	assert.Equal(t, 18, *res.Age)

	res = Evaluate("0606155000080", time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, res.Age)
	assert.Equal(t, 17, *res.Age)
}

func TestCheckDigit(t *testing.T) {
	digit, ok := CheckDigit("040601580008")
	require.True(t, ok)
	assert.Equal(t, 8, digit)

	_, ok = CheckDigit("04060158000")
	assert.False(t, ok)
	_, ok = CheckDigit("04060158000x")
	assert.False(t, ok)
}

func TestChecksumRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		prefix := randomDigits(rng, Length-1)
		id, err := Complete(prefix)
		require.NoError(t, err)
		require.True(t, ValidChecksum(id), "completed id %s must validate", id)

		pos := rng.Intn(Length)
		orig := int(id[pos] - '0')
		replacement := (orig + 1 + rng.Intn(9)) % 10
		mutated := id[:pos] + strconv.Itoa(replacement) + id[pos+1:]
		assert.False(t, ValidChecksum(mutated), "mutating position %d of %s to %s went undetected", pos, id, mutated)
	}
}

func TestCheckDigitUnique(t *testing.T) {
	prefix := "060615500008"
	valid := 0
	for d := 0; d <= 9; d++ {
		if ValidChecksum(prefix + strconv.Itoa(d)) {
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}

func TestResultAgeInRange(t *testing.T) {
	assert.False(t, Result{}.AgeInRange())
	assert.True(t, Result{Age: intPtr(13)}.AgeInRange())
	assert.True(t, Result{Age: intPtr(25)}.AgeInRange())
	assert.False(t, Result{Age: intPtr(26)}.AgeInRange())
}

func randomDigits(rng *rand.Rand, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rng.Intn(10))
	}
	return string(buf)
}

func intPtr(v int) *int {
	return &v
}
