package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRClass(t *testing.T) {
	cases := []struct {
		class RRClass
		str   string
	}{
		{RRClassIN, "IN"},
		{RRClassCH, "CH"},
		{RRClassHS, "HS"},
		{RRClassANY, "ANY"},
		{0, "CLASS0"},
		{9999, "CLASS9999"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.str, tc.class.String(), "String(%d)", uint16(tc.class))
	}
}
