package dynamo

// Attribute names used in update expressions.
const (
	fieldRating = "rating"
)
