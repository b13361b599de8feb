// Package clinics loads the clinic directory and ranks clinics by distance
// from the device.
package clinics

import (
	"sort"
	"strings"
)

// Coordinates locate a clinic in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Clinic is a bookable clinic. Coordinates is nil when unknown.
type Clinic struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	Province    string       `json:"province"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Source says where a clinic list came from.
type Source string

const (
	SourceAPI  Source = "api"
	SourceSeed Source = "seed"
)

// Find returns the clinic with id.
func Find(clinics []Clinic, id string) (Clinic, bool) {
	for _, c := range clinics {
		if c.ID == id {
			return c, true
		}
	}
	return Clinic{}, false
}

// Provinces lists the distinct, non-empty provinces in clinics, sorted.
func Provinces(clinics []Clinic) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range clinics {
		p := strings.TrimSpace(c.Province)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FilterByProvince keeps clinics in province (case-insensitive). An empty
// province keeps everything.
func FilterByProvince(clinics []Clinic, province string) []Clinic {
	province = strings.TrimSpace(province)
	if province == "" {
		return append([]Clinic(nil), clinics...)
	}
	out := make([]Clinic, 0, len(clinics))
	for _, c := range clinics {
		if strings.EqualFold(strings.TrimSpace(c.Province), province) {
			out = append(out, c)
		}
	}
	return out
}
