package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/campcheck/internal/catalog"
)

func TestResolveCampground(t *testing.T) {
	ids := catalog.CampgroundIDs()
	tests := []struct {
		in   string
		want string
	}{
		{"tourist-park", "tourist-park"},
		{"Tourist Park", "tourist-park"},
		{"au-train-lak", "au-train-lake"},
		{"straits state park", "straits-state-park"},
		{"munising koa", "munising-koa"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := resolveCampground(tt.in, ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveCampground("zzzzqqqq", ids)
	assert.Error(t, err)
}
