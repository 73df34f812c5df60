package schema

import (
	_ "embed"
	"fmt"
)

// Field names of the credit score form, as sent on the wire.
const (
	FieldAge           = "age"
	FieldGender        = "gender"
	FieldIncome        = "income"
	FieldEducation     = "education"
	FieldMaritalStatus = "marital_status"
	FieldNumChildren   = "num_children"
	FieldHomeOwnership = "home_ownership"
)

//go:embed credit_score.yaml
var creditScoreDocument []byte

// CreditScore returns the built-in credit score form schema.
func CreditScore() Schema {
	s, err := Load(embeddedSource("credit_score.yaml"), creditScoreDocument)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded credit score schema: %v", err))
	}
	return s
}

// CreditScoreDocument returns a copy of the embedded schema document so
// callers can use it as a template for overrides.
func CreditScoreDocument() []byte {
	return append([]byte(nil), creditScoreDocument...)
}
