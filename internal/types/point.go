// README: Common geographic and identifier value objects used across modules.
package types

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lon"`
}

// Place is a geocoded search hit.
type Place struct {
	Name     string `json:"name"`
	Position Point  `json:"position"`
}
