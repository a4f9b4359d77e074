package model

// List is a named collection of tasks owned by one user. The id is assigned
// by the store on first save.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	UserID string `json:"userId" validate:"required"`

	// IsDefault marks the list as the owner's default. The flag itself is not
	// stored on the list item: the reference lives on the owning user's
	// preferences, which is why creating a default list is transactional.
	IsDefault bool `json:"isDefault"`
}

// Validate checks the fields required to create the list.
func (l *List) Validate() error {
	return validate.Struct(l)
}
