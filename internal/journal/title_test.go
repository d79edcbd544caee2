package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "   ", ""},
		{"short", "Walked the  dog", "Walked the dog"},
		{"exactly five", "one two three four five", "one two three four five"},
		{"eight words", "one two three four five six seven eight", "one two three four five six seven eight"},
		{"truncated", "one two three four five six seven eight nine", "one two three four five six seven eight..."},
		{"sentence end", "We drove to the coast. Then it rained all day", "We drove to the coast...."},
		{"trailing comma", "one two three four five six seven eight, nine ten", "one two three four five six seven eight..."},
		{"whole sentence", "Met Maya at the old lighthouse today!", "Met Maya at the old lighthouse today!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateTitle(tt.text))
		})
	}
}
