package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T, name string, addrs ...string) *ZoneRecord {
	t.Helper()
	z, err := NewZoneRecord(name, addrs, 300)
	require.NoError(t, err)
	return z
}

func TestTable_Match(t *testing.T) {
	table := NewTable(
		mustZone(t, "example.com.", "1.2.3.4"),
		mustZone(t, "example.org.", "5.6.7.8"),
	)

	tests := []struct {
		name  string
		qname string
		want  string
	}{
		{name: "exact", qname: "example.com.", want: "example.com."},
		{name: "subdomain", qname: "foo.example.com.", want: "example.com."},
		{name: "deep subdomain", qname: "a.b.c.example.org.", want: "example.org."},
		{name: "second zone exact", qname: "example.org.", want: "example.org."},
		{name: "unrelated", qname: "other.org.", want: ""},
		{name: "label boundary", qname: "notexample.com.", want: ""},
		{name: "parent", qname: "com.", want: ""},
		{name: "upper case does not match", qname: "EXAMPLE.COM.", want: ""},
		{name: "relative name does not match", qname: "example.com", want: ""},
		{name: "root", qname: ".", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, ok := table.Match(tt.qname)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, z)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, z.Domain)
		})
	}
}

func TestTable_Match_LoadOrderWins(t *testing.T) {
	parent := mustZone(t, "example.com.", "1.1.1.1")
	child := mustZone(t, "sub.example.com.", "2.2.2.2")

	t.Run("parent first", func(t *testing.T) {
		table := NewTable(parent, child)
		for _, q := range []string{"sub.example.com.", "www.sub.example.com."} {
			z, ok := table.Match(q)
			require.True(t, ok)
			assert.Same(t, parent, z, q)
		}
	})

	t.Run("child first", func(t *testing.T) {
		table := NewTable(child, parent)
		for _, q := range []string{"sub.example.com.", "www.sub.example.com."} {
			z, ok := table.Match(q)
			require.True(t, ok)
			assert.Same(t, child, z, q)
		}
		z, ok := table.Match("www.example.com.")
		require.True(t, ok)
		assert.Same(t, parent, z)
	})
}

func TestTable_DuplicateKeepsFirstPosition(t *testing.T) {
	first := mustZone(t, "example.com.", "1.1.1.1")
	other := mustZone(t, "com.", "3.3.3.3")
	again := mustZone(t, "example.com.", "2.2.2.2")

	table := NewTable(first, other, again)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"example.com.", "com."}, table.Domains())

	z, ok := table.Match("www.example.com.")
	require.True(t, ok)
	assert.Same(t, again, z, "later records replace earlier ones")
}

func TestTable_Get(t *testing.T) {
	z := mustZone(t, "example.com.", "1.2.3.4")
	table := NewTable(z)

	got, ok := table.Get("example.com.")
	require.True(t, ok)
	assert.Same(t, z, got)

	_, ok = table.Get("www.example.com.")
	assert.False(t, ok)
}

func TestTable_Empty(t *testing.T) {
	table := NewTable()
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Domains())
	_, ok := table.Match("example.com.")
	assert.False(t, ok)
}
