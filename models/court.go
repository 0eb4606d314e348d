package models

type Court struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	CurrentMatchID *string `json:"current_match_id" db:"current_match_id"`
}

func (c *Court) IsFree() bool {
	return c.CurrentMatchID == nil
}
