package domain

import (
	"errors"
	"fmt"
)

// Question is the parsed question of an incoming query together with the
// transaction ID it arrived under.
type Question struct {
	ID    uint16
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(id uint16, name string, rrtype RRType, class RRClass) (Question, error) {
	q := Question{
		ID:    id,
		Name:  name,
		Type:  rrtype,
		Class: class,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks whether the Question is structurally usable.
// Any type and class is accepted: an unknown type simply selects no records.
func (q Question) Validate() error {
	if q.Name == "" {
		return errors.New("query name must not be empty")
	}
	return nil
}

// String renders the question as "name class type", e.g. "example.com. IN A".
func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Class, q.Type)
}
