package clinics

import "github.com/wolfman30/clinic-scheduler/internal/geo"

// LocateNearest returns the id of the clinic closest to pos, comparing squared
// differences in raw degrees. That is coarse but adequate for ranking a
// handful of clinics. Clinics without coordinates are skipped and ties keep
// the earlier clinic.
func LocateNearest(clinics []Clinic, pos *geo.Position) (string, bool) {
	if pos == nil {
		return "", false
	}
	bestID := ""
	bestDist := 0.0
	for _, c := range clinics {
		if c.Coordinates == nil {
			continue
		}
		dLat := c.Coordinates.Lat - pos.Lat
		dLng := c.Coordinates.Lng - pos.Lng
		d := dLat*dLat + dLng*dLng
		if bestID == "" || d < bestDist {
			bestID, bestDist = c.ID, d
		}
	}
	return bestID, bestID != ""
}
