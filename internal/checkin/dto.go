package checkin

type CheckInDTO struct {
	Mood  int     `json:"mood"`
	Notes *string `json:"notes,omitempty"`
}
