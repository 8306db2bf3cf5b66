package rest

type createEventRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string `json:"time" validate:"omitempty,datetime=15:04"`
	Description      string `json:"description" validate:"max=5000"`
	LinkedItemID     *int64 `json:"linked_item_id" validate:"omitempty,gt=0"`
	ExplicitCapacity *int   `json:"explicit_capacity" validate:"omitempty,gte=0"`
}

type registerRequest struct {
	Choice string `json:"choice" validate:"omitempty,oneof=auto active waitlisted"`
}

type addItemRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Owner           string `json:"owner" validate:"max=100"`
	MinPlayers      int    `json:"min_players" validate:"gte=0,lte=100"`
	MaxPlayers      int    `json:"max_players" validate:"gte=0,lte=100"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	MinAge          int    `json:"min_age" validate:"gte=0,lte=99"`
	BaseItemID      *int64 `json:"base_item_id" validate:"omitempty,gt=0"`
}

type attachRequest struct {
	AttachmentID int64 `json:"attachment_id" validate:"required,gt=0"`
}

type importRequest struct {
	BGGID      int64  `json:"bgg_id" validate:"required,gt=0"`
	Owner      string `json:"owner" validate:"max=100"`
	BaseItemID *int64 `json:"base_item_id" validate:"omitempty,gt=0"`
}
