package cache

import (
	"net/url"
	"testing"

	"github.com/Sternrassler/movie-search-client/pkg/query"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint without params",
			key:  Key{Endpoint: "/api/movies"},
			want: "api/movies",
		},
		{
			name: "params are sorted",
			key: Key{
				Endpoint: "/api/movies",
				QueryParams: url.Values{
					"title": []string{"matrix"},
					"size":  []string{"12"},
				},
			},
			want: "api/movies:size=12:title=matrix",
		},
		{
			name: "separator inside a value is escaped",
			key: Key{
				Endpoint: "/api/movies",
				QueryParams: url.Values{
					"title": []string{"star wars: a new hope"},
				},
			},
			want: "api/movies:title=star+wars%3A+a+new+hope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyFor(t *testing.T) {
	req := query.Build(query.Criteria{Title: "matrix", Year: "1999"}, query.Window{Offset: 12, Limit: 12})

	got := KeyFor(req).String()
	want := "api/movies:from_item=12:size=12:title=matrix:year=1999"
	if got != want {
		t.Errorf("KeyFor().String() = %q, want %q", got, want)
	}

	// Different windows must not share an entry.
	other := KeyFor(query.Build(query.Criteria{Title: "matrix", Year: "1999"}, query.Window{Offset: 24, Limit: 12}))
	if other.String() == got {
		t.Error("keys for different pages should differ")
	}
}
