package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractList(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		primaryKey string
		want       []any
	}{
		{
			name: "bare array wins",
			data: []any{"a", "b"},
			want: []any{"a", "b"},
		},
		{
			name:       "items before primary key",
			data:       map[string]any{"items": []any{"i"}, "photos": []any{"p"}, "Items": []any{"I"}},
			primaryKey: "photos",
			want:       []any{"i"},
		},
		{
			name:       "primary key before legacy Items",
			data:       map[string]any{"photos": []any{"p"}, "Items": []any{"I"}},
			primaryKey: "photos",
			want:       []any{"p"},
		},
		{
			name:       "legacy Items",
			data:       map[string]any{"Items": []any{"I"}},
			primaryKey: "photos",
			want:       []any{"I"},
		},
		{
			name:       "non array under items is skipped",
			data:       map[string]any{"items": "oops", "leads": []any{"l"}},
			primaryKey: "leads",
			want:       []any{"l"},
		},
		{
			name:       "no match",
			data:       map[string]any{"other": []any{"x"}},
			primaryKey: "faces",
			want:       []any{},
		},
		{
			name: "nil payload",
			data: nil,
			want: []any{},
		},
		{
			name: "scalar payload",
			data: "text",
			want: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractList(tt.data, tt.primaryKey)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRecords(t *testing.T) {
	data := map[string]any{
		"faces": []any{
			map[string]any{"FaceId": "f1", "MatchCount": "2"},
			"not a record",
			map[string]any{"face_id": "f2"},
		},
	}

	records := ExtractRecords(data, "faces")

	assert.Len(t, records, 2)
	assert.Equal(t, "f1", records[0][KeyFaceID])
	assert.Equal(t, "f2", records[1][KeyFaceIDAlias])
}
