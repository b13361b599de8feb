package clinics

// seedClinics is served when the directory cannot be reached, so the booking
// form stays usable offline. Grouped by province.
var seedClinics = []Clinic{
	{ID: "gt-1", Name: "PWF Health and Care Center", Location: "Johannesburg", Province: "Gauteng", Coordinates: &Coordinates{Lat: -26.2041, Lng: 28.0473}},
	{ID: "gt-2", Name: "Med Care", Location: "Pretoria", Province: "Gauteng", Coordinates: &Coordinates{Lat: -25.7479, Lng: 28.2293}},
	{ID: "gt-3", Name: "Soweto Community Clinic", Location: "Soweto", Province: "Gauteng", Coordinates: &Coordinates{Lat: -26.2485, Lng: 27.8540}},
	{ID: "kzn-1", Name: "Ubuntu Clinic", Location: "Durban", Province: "KwaZulu-Natal", Coordinates: &Coordinates{Lat: -29.8587, Lng: 31.0218}},
	{ID: "kzn-2", Name: "Midlands Family Clinic", Location: "Pietermaritzburg", Province: "KwaZulu-Natal", Coordinates: &Coordinates{Lat: -29.6006, Lng: 30.3794}},
	{ID: "wc-1", Name: "Unjani Clinic", Location: "Cape Town", Province: "Western Cape", Coordinates: &Coordinates{Lat: -33.9249, Lng: 18.4241}},
	{ID: "wc-2", Name: "Boland Health Point", Location: "Stellenbosch", Province: "Western Cape", Coordinates: &Coordinates{Lat: -33.9321, Lng: 18.8602}},
	{ID: "ec-1", Name: "Bay Care Clinic", Location: "Gqeberha", Province: "Eastern Cape", Coordinates: &Coordinates{Lat: -33.9608, Lng: 25.6022}},
}

// SeedClinics returns a copy of the built-in clinic list.
func SeedClinics() []Clinic {
	out := make([]Clinic, len(seedClinics))
	for i, c := range seedClinics {
		if c.Coordinates != nil {
			coords := *c.Coordinates
			c.Coordinates = &coords
		}
		out[i] = c
	}
	return out
}
