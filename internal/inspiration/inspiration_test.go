package inspiration

import (
	"reflect"
	"testing"
)

func TestFilterCategories(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []Category
	}{
		{
			name: "valid kept in order",
			raw:  []string{"learning", "work"},
			want: []Category{CategoryLearning, CategoryWork},
		},
		{
			name: "unknown dropped",
			raw:  []string{"work", "bogus"},
			want: []Category{CategoryWork},
		},
		{
			name: "all unknown defaults to creation",
			raw:  []string{"bogus", "nonsense"},
			want: []Category{CategoryCreation},
		},
		{
			name: "empty defaults to creation",
			raw:  nil,
			want: []Category{CategoryCreation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterCategories(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterCategories(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 50, "short"},
		{"abcdef", 3, "abc"},
		{"灵感来自于生活的点滴", 4, "灵感来自"},
		{"", 10, ""},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range ValidCategories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	if ValidCategory("inspiration") {
		t.Error("ValidCategory(inspiration) = true, want false")
	}
}
