package shared

// Page is the listing envelope returned by every describe endpoint. NextToken
// is empty on the last page and is passed back as next_token.
type Page[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"next_token,omitempty"`
}

// NewPage wraps a slice of items, never encoding a null list.
func NewPage[T any](items []T, next string) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, NextToken: next}
}
