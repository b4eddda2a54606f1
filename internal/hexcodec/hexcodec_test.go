package hexcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStream(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []byte
	}{
		{name: "empty input", input: "", expected: []byte{}},
		{name: "odd length", input: "abc", expected: []byte{}},
		{name: "single byte", input: "ff", expected: []byte{0xff}},
		{name: "invalid pair decodes to zero", input: "zz", expected: []byte{0}},
		{name: "mixed valid and invalid pairs", input: "01zz02", expected: []byte{1, 0, 2}},
		{name: "uppercase digits", input: "A2", expected: []byte{0xa2}},
		{name: "mode response", input: "0100020001", expected: []byte{1, 0, 2, 0, 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecodeStream(tc.input))
		})
	}
}

func TestEncodeByte(t *testing.T) {
	testCases := []struct {
		name     string
		input    int
		expected string
		wantErr  bool
	}{
		{name: "zero pads", input: 4, expected: "04"},
		{name: "max byte", input: 255, expected: "ff"},
		{name: "lowercase", input: 0xa2, expected: "a2"},
		{name: "negative rejected", input: -1, wantErr: true},
		{name: "too large rejected", input: 256, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeByte(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

// DecodeStream must invert byte-wise EncodeByte for arbitrary sequences.
func TestDecodeStreamInvertsEncodeByte(t *testing.T) {
	sequences := [][]byte{
		{},
		{0},
		{0, 1, 2, 3, 255},
		{162, 161, 60, 120, 7},
	}

	for _, seq := range sequences {
		var sb strings.Builder
		for _, b := range seq {
			encoded, err := EncodeByte(int(b))
			require.NoError(t, err)
			sb.WriteString(encoded)
		}

		decoded := DecodeStream(sb.String())
		require.Len(t, decoded, len(seq))
		for i, b := range seq {
			assert.Equal(t, b, decoded[i])
		}
	}
}
