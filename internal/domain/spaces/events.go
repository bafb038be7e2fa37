package spaces

import "time"

type SpaceCreated struct {
	SpaceID SpaceID
	Owner   OwnerID
	At      time.Time
}

func (e SpaceCreated) EventName() string     { return "space.created" }
func (e SpaceCreated) AggregateID() string   { return string(e.SpaceID) }
func (e SpaceCreated) OccurredAt() time.Time { return e.At }

type SpacePublished struct {
	SpaceID SpaceID
	At      time.Time
}

func (e SpacePublished) EventName() string     { return "space.published" }
func (e SpacePublished) AggregateID() string   { return string(e.SpaceID) }
func (e SpacePublished) OccurredAt() time.Time { return e.At }

type SpaceTakenDown struct {
	SpaceID SpaceID
	Reason  string
	At      time.Time
}

func (e SpaceTakenDown) EventName() string     { return "space.suspended" }
func (e SpaceTakenDown) AggregateID() string   { return string(e.SpaceID) }
func (e SpaceTakenDown) OccurredAt() time.Time { return e.At }
