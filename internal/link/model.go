package link

// Link is a stored short link.
type Link struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Link      string `json:"link"`
	Enabled   bool   `json:"enabled"`
	TimesUsed int64  `json:"times_used"`
}

// NewLink is the input for creating a link. An empty Name asks the
// service to generate one.
type NewLink struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// UpdatableLink is a partial changeset: nil fields are left untouched.
type UpdatableLink struct {
	Name    *string `json:"name,omitempty"`
	Link    *string `json:"link,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// IsEmpty reports whether the changeset would change nothing.
func (u UpdatableLink) IsEmpty() bool {
	return u.Name == nil && u.Link == nil && u.Enabled == nil
}
