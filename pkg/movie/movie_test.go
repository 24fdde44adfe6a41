package movie

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantTotal int
		wantCount int
	}{
		{
			name:      "valid page",
			body:      `{"movies":[{"title":"The Matrix","year":1999,"imdb_id":"tt0133093"}],"total":3}`,
			wantTotal: 3,
			wantCount: 1,
		},
		{
			name:      "no matches",
			body:      `{"movies":[],"total":0}`,
			wantTotal: 0,
			wantCount: 0,
		},
		{
			name:      "extra fields are ignored",
			body:      `{"movies":[],"total":0,"took":12}`,
			wantTotal: 0,
		},
		{
			name:    "missing movies",
			body:    `{"total":3}`,
			wantErr: true,
		},
		{
			name:    "null movies",
			body:    `{"movies":null,"total":3}`,
			wantErr: true,
		},
		{
			name:    "missing total",
			body:    `{"movies":[]}`,
			wantErr: true,
		},
		{
			name:    "negative total",
			body:    `{"movies":[],"total":-1}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>Bad Gateway</html>`,
			wantErr: true,
		},
		{
			name:    "empty body",
			body:    ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode() expected error, got %+v", got)
				}
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("Decode() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
			if len(got.Movies) != tt.wantCount {
				t.Errorf("len(Movies) = %d, want %d", len(got.Movies), tt.wantCount)
			}
		})
	}
}

func TestDecode_MovieFields(t *testing.T) {
	body := `{"movies":[
		{"title":"The Matrix","year":1999,"imdb_id":"tt0133093"},
		{"title":"Matrix Reloaded","year":"2003","imdb_id":"tt0234215"}
	],"total":2}`

	got, err := Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	first := got.Movies[0]
	if first.Title != "The Matrix" || first.Year != "1999" || first.IMDbID != "tt0133093" {
		t.Errorf("first movie = %+v", first)
	}
	if got.Movies[1].Year != "2003" {
		t.Errorf("string year = %q, want %q", got.Movies[1].Year, "2003")
	}
}

func TestYear_UnmarshalInvalid(t *testing.T) {
	_, err := Unmarshal([]byte(`{"movies":[{"title":"x","year":true,"imdb_id":"tt1"}],"total":1}`))
	if err == nil {
		t.Error("expected error for boolean year")
	}
}

func TestYear_MarshalJSON(t *testing.T) {
	tests := []struct {
		year Year
		want string
	}{
		{"1999", `1999`},
		{"0", `0`},
		{"1999-2003", `"1999-2003"`},
		{"0199", `"0199"`},
		{"", `""`},
	}

	for _, tt := range tests {
		t.Run(string(tt.year), func(t *testing.T) {
			got, err := tt.year.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	in := &SearchResult{
		Movies: []Movie{{Title: "Amélie", Year: "2001", IMDbID: "tt0211915"}},
		Total:  1,
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"year":2001`) {
		t.Errorf("expected numeric year in %s", data)
	}

	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Total != 1 || out.Movies[0] != in.Movies[0] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestMarshal_EmptyResultKeepsMoviesArray(t *testing.T) {
	data, err := Marshal(&SearchResult{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if _, err := Unmarshal(data); err != nil {
		t.Errorf("empty result should decode again, got %v (payload %s)", err, data)
	}
	if _, err := Marshal(nil); err == nil {
		t.Error("Marshal(nil) should fail")
	}
}

func TestSearchResult_Empty(t *testing.T) {
	var none *SearchResult
	if none.Empty() {
		t.Error("nil result means no search yet, not empty")
	}
	if !(&SearchResult{Movies: []Movie{}, Total: 0}).Empty() {
		t.Error("result without movies should be empty")
	}
	if (&SearchResult{Movies: []Movie{{Title: "x"}}, Total: 1}).Empty() {
		t.Error("result with movies should not be empty")
	}
}
