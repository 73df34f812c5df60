// Package openapi reads the classifier's OpenAPI contract and derives the
// form schema from the request body of its predict operation. Fields are the
// properties of the envelope member (user_input), ordered by their x-order
// extension, then by the required list.
package openapi
