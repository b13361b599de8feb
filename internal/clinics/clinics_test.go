package clinics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

type stubDirectory struct {
	clinics []Clinic
	err     error
}

func (s stubDirectory) ListClinics(context.Context) ([]Clinic, error) { return s.clinics, s.err }

type recordedSources []string

func (r *recordedSources) ObserveClinicDirectory(source string) { *r = append(*r, source) }

func TestLocateNearest(t *testing.T) {
	list := []Clinic{
		{ID: "a", Coordinates: &Coordinates{Lat: 0, Lng: 0}},
		{ID: "b", Coordinates: &Coordinates{Lat: 10, Lng: 10}},
	}

	id, ok := LocateNearest(list, &geo.Position{Lat: 1, Lng: 1})
	require.True(t, ok)
	assert.Equal(t, "a", id)

	id, ok = LocateNearest(list, &geo.Position{Lat: 9, Lng: 8})
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestLocateNearest_NoCandidates(t *testing.T) {
	_, ok := LocateNearest([]Clinic{{ID: "x"}}, &geo.Position{})
	assert.False(t, ok)

	_, ok = LocateNearest(SeedClinics(), nil)
	assert.False(t, ok)
}

func TestLocateNearest_TieKeepsFirst(t *testing.T) {
	list := []Clinic{
		{ID: "first", Coordinates: &Coordinates{Lat: 1, Lng: 0}},
		{ID: "second", Coordinates: &Coordinates{Lat: -1, Lng: 0}},
	}
	id, _ := LocateNearest(list, &geo.Position{})
	assert.Equal(t, "first", id)
}

func TestLocateNearest_SeedJohannesburg(t *testing.T) {
	id, ok := LocateNearest(SeedClinics(), &geo.Position{Lat: -26.19, Lng: 28.03})
	require.True(t, ok)
	assert.Equal(t, "gt-1", id)
}

func TestProvincesAndFilter(t *testing.T) {
	seed := SeedClinics()
	assert.Equal(t, []string{"Eastern Cape", "Gauteng", "KwaZulu-Natal", "Western Cape"}, Provinces(seed))

	gauteng := FilterByProvince(seed, "gauteng")
	require.Len(t, gauteng, 3)
	for _, c := range gauteng {
		assert.Equal(t, "Gauteng", c.Province)
	}
	assert.Len(t, FilterByProvince(seed, ""), len(seed))
	assert.Empty(t, FilterByProvince(seed, "Limpopo"))
}

func TestSeedClinicsIsACopy(t *testing.T) {
	a := SeedClinics()
	a[0].Coordinates.Lat = 99
	a[0].Name = "changed"

	b := SeedClinics()
	assert.NotEqual(t, 99.0, b[0].Coordinates.Lat)
	assert.NotEqual(t, "changed", b[0].Name)
}

func TestSelectorLoad(t *testing.T) {
	apiClinics := []Clinic{{ID: "x-1", Name: "Live"}}

	tests := []struct {
		name       string
		dir        Directory
		wantSource Source
	}{
		{"api", stubDirectory{clinics: apiClinics}, SourceAPI},
		{"error falls back", stubDirectory{err: errors.New("down")}, SourceSeed},
		{"empty falls back", stubDirectory{}, SourceSeed},
		{"no directory", nil, SourceSeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recordedSources
			sel := NewSelector(tt.dir, &rec, logging.Discard())

			clinics, source := sel.Load(context.Background())
			assert.Equal(t, tt.wantSource, source)
			assert.NotEmpty(t, clinics)
			assert.Equal(t, recordedSources{string(tt.wantSource)}, rec)
			if tt.wantSource == SourceSeed {
				assert.Equal(t, SeedClinics(), clinics)
			}
		})
	}
}

func TestAPIDirectoryConvertsCoordinates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"gt-1","name":"PWF","location":"Johannesburg","province":"Gauteng","lat":-26.2,"lng":28.0},
			{"id":"","name":"nameless"},
			{"id":"gt-9","name":"No Coords","lat":-26.2}
		]`))
	}))
	t.Cleanup(ts.Close)

	dir := NewAPIDirectory(schedulerapi.NewClient(ts.URL, logging.Discard()))
	clinics, err := dir.ListClinics(context.Background())
	require.NoError(t, err)
	require.Len(t, clinics, 2)
	require.NotNil(t, clinics[0].Coordinates)
	assert.InDelta(t, 28.0, clinics[0].Coordinates.Lng, 1e-9)
	assert.Nil(t, clinics[1].Coordinates)
}
