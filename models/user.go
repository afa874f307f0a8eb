package models

// User is identified by its business key UserID. ID is the storage id.
type User struct {
	ID     string  `json:"_id"`
	UserID string  `json:"userId"`
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
}
