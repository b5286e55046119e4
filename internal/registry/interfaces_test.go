package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHandles(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "plain", in: "elonmusk, VitalikButerin,cz_binance", want: []string{"elonmusk", "VitalikButerin", "cz_binance"}},
		{name: "at signs and blanks", in: "@alice, , @bob,", want: []string{"alice", "bob"}},
		{name: "empty", in: "  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitHandles(tt.in))
		})
	}
}
