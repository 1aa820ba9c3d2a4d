package store

import (
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{"empty", 0, 10, nil},
		{"single chunk", 5, 10, [][2]int{{0, 5}}},
		{"exact chunks", 10, 5, [][2]int{{0, 5}, {5, 10}}},
		{"remainder", 12, 5, [][2]int{{0, 5}, {5, 10}, {10, 12}}},
		{"zero chunk size", 3, 0, [][2]int{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chunks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeStrings = %v, want %v", got, want)
	}
	if DedupeStrings(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
