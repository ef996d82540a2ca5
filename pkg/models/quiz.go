package models

import (
	"encoding/json"
	"fmt"
)

type Identity struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// QuizTask is one chain launch request. It is not modified after launch.
type QuizTask struct {
	ID       string
	URL      string
	Identity Identity
}

type AnswerKind int

const (
	KindString AnswerKind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindObject
)

func (k AnswerKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	default:
		return "string"
	}
}

// Answer is the typed value produced by the solver.
// Value holds int64, float64, bool, string, or a decoded JSON object/array.
type Answer struct {
	Kind  AnswerKind
	Value any
}

func IntAnswer(v int64) Answer     { return Answer{Kind: KindInteger, Value: v} }
func FloatAnswer(v float64) Answer { return Answer{Kind: KindFloat, Value: v} }
func BoolAnswer(v bool) Answer     { return Answer{Kind: KindBoolean, Value: v} }
func StringAnswer(v string) Answer { return Answer{Kind: KindString, Value: v} }

// MarshalJSON writes the bare value so the grader sees 42, not {"Kind":1,"Value":42}.
func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

func (a Answer) String() string {
	if a.Kind == KindObject {
		b, err := json.Marshal(a.Value)
		if err != nil {
			return fmt.Sprintf("%v", a.Value)
		}
		return string(b)
	}
	return fmt.Sprintf("%v", a.Value)
}

// Verdict is the grader's reply to a submission.
// Correct with an empty NextURL means the chain is finished.
type Verdict struct {
	Correct bool   `json:"correct"`
	NextURL string `json:"url,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SubmitPayload is the JSON body posted to the grading endpoint.
type SubmitPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer Answer `json:"answer"`
}
