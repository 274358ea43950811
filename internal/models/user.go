package models

type User struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}
