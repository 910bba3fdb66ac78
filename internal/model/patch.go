package model

import "time"

// Patch describes the Battlegrounds patch currently live.
type Patch struct {
	Number  int       `json:"number" msgpack:"number"`
	Version string    `json:"version" msgpack:"version"`
	Date    time.Time `json:"date" msgpack:"date"`
}
