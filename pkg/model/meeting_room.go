package model

type MeetingRoom struct {
	ID            string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity      int    `json:"capacity" bson:"capacity" validate:"required,min=1,max=500"`
	Location      string `json:"location" bson:"location" validate:"required,min=2,max=200"`
	HasProjector  bool   `json:"has_projector" bson:"has_projector"`
	HasWhiteboard bool   `json:"has_whiteboard" bson:"has_whiteboard"`
}
