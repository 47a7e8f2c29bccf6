package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s has the document id format.
func ValidID(s string) bool {
	return primitive.IsValidObjectID(s)
}
