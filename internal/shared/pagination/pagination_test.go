package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
	}{
		{"defaults", 0, 0, 1, 25},
		{"kept", 3, 10, 3, 10},
		{"clamped", 1, 500, 1, 100},
		{"negative", -2, -5, 1, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := Normalize(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLim, limit)
		})
	}
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	p := Slice(all, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, p.Items)
	assert.Equal(t, int64(7), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	last := Slice(all, 3, 3)
	assert.Equal(t, []int{7}, last.Items)

	past := Slice(all, 9, 3)
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)
}
