// Package anticheat generates the arithmetic questions that gate
// voice/text check-ins and parses submitted answers.
package anticheat

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const (
	// TTL counts from challenge creation; past it any answer expires.
	TTL = 2 * time.Minute

	MaxAttempts = 3
)

// Question is a generated arithmetic task with its expected answer.
type Question struct {
	Text   string
	Answer int
}

// Generate picks two small operands and an operator. Subtraction is
// always max-min so the answer stays non-negative.
func Generate() Question {
	a := rand.Intn(8) + 2 // 2..9
	b := rand.Intn(9) + 1 // 1..9

	if rand.Intn(2) == 0 {
		return Question{
			Text:   fmt.Sprintf("Сколько будет %d + %d?", a, b),
			Answer: a + b,
		}
	}

	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	return Question{
		Text:   fmt.Sprintf("Сколько будет %d - %d?", hi, lo),
		Answer: hi - lo,
	}
}

// ParseAnswer extracts an integer from a user reply. Surrounding
// whitespace and punctuation are tolerated; anything else is not an
// answer.
func ParseAnswer(text string) (int, error) {
	trimmed := strings.TrimFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '.' || r == '!' || r == ','
	})

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("not an integer answer: %q", text)
	}

	return n, nil
}
