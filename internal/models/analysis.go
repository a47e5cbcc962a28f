package models

import (
	"encoding/json"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Analysis is the canonical post-interview result shape.
type Analysis struct {
	Scores       Scores   `bson:"scores" json:"scores"`
	Summary      string   `bson:"summary" json:"summary"`
	Improvements []string `bson:"improvements" json:"improvements"`
	Strengths    []string `bson:"strengths" json:"strengths"`
}

type Scores struct {
	Communication Score `bson:"communication" json:"communication"`
	Technical     Score `bson:"technical" json:"technical"`
	Structure     Score `bson:"structure" json:"structure"`
	Confidence    Score `bson:"confidence" json:"confidence"`
	Nonverbal     Score `bson:"nonverbal" json:"nonverbal"`
}

// Score holds an integer, null, or a marker string such as "N/A".
// The zero value is null.
type Score struct {
	n    *int
	text string
}

func NullScore() Score         { return Score{} }
func IntScore(n int) Score     { return Score{n: &n} }
func TextScore(s string) Score { return Score{text: s} }

func (s Score) IsNull() bool { return s.n == nil && s.text == "" }

func (s Score) Int() (int, bool) {
	if s.n == nil {
		return 0, false
	}
	return *s.n, true
}

func (s Score) Text() string { return s.text }

func (s Score) String() string {
	switch {
	case s.n != nil:
		return fmt.Sprintf("%d", *s.n)
	case s.text != "":
		return s.text
	default:
		return "null"
	}
}

func (s Score) MarshalJSON() ([]byte, error) {
	switch {
	case s.n != nil:
		return json.Marshal(*s.n)
	case s.text != "":
		return json.Marshal(s.text)
	default:
		return []byte("null"), nil
	}
}

func (s *Score) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = NullScore()
	case float64:
		*s = IntScore(int(math.Round(t)))
	case string:
		*s = TextScore(t)
	default:
		return fmt.Errorf("score: unsupported json value %s", string(b))
	}
	return nil
}

func (s Score) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case s.n != nil:
		return bson.MarshalValue(int64(*s.n))
	case s.text != "":
		return bson.MarshalValue(s.text)
	default:
		return bsontype.Null, nil, nil
	}
}

func (s *Score) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = NullScore()
	case bsontype.Int32:
		*s = IntScore(int(rv.Int32()))
	case bsontype.Int64:
		*s = IntScore(int(rv.Int64()))
	case bsontype.Double:
		*s = IntScore(int(math.Round(rv.Double())))
	case bsontype.String:
		*s = TextScore(rv.StringValue())
	default:
		return fmt.Errorf("score: unsupported bson type %s", t)
	}
	return nil
}
