package model

type User struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Username string `json:"username" bson:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
}
