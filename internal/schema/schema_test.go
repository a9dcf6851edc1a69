package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playok/metricd/internal/metric"
)

func TestDefaultKnowsCommonTypes(t *testing.T) {
	db := Default()

	sources, err := db.Lookup("if_octets")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "rx", sources[0].Name)
	assert.Equal(t, "tx", sources[1].Name)
	assert.Equal(t, metric.KindDerive, sources[0].Kind)

	sources, err = db.Lookup("load")
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, []string{"shortterm", "midterm", "longterm"},
		[]string{sources[0].Name, sources[1].Name, sources[2].Name})

	_, err = db.Lookup("no_such_type")
	assert.ErrorIs(t, err, ErrSchemaNotFound)
}

func TestParse(t *testing.T) {
	const input = `
# custom site types
http_requests  value:DERIVE:0:U
disk_latency   read:GAUGE:0:U, write:GAUGE:0:U  # inline comment
`
	db := NewDB()
	require.NoError(t, Parse(db, strings.NewReader(input)))
	assert.Equal(t, 2, db.Len())

	sources, err := db.Lookup("disk_latency")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "write", sources[1].Name)
	assert.Equal(t, metric.KindGauge, sources[1].Kind)
	assert.Equal(t, 0.0, sources[1].Min)
	assert.True(t, Unbounded(sources[1].Max))
}

func TestParseRejectsMalformedLines(t *testing.T) {
	cases := []string{
		"lonely_type",
		"bad_kind value:WIBBLE:0:U",
		"bad_bound value:GAUGE:zero:U",
		"short value:GAUGE:0",
	}
	for _, input := range cases {
		err := Parse(NewDB(), strings.NewReader(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestDefineOverrides(t *testing.T) {
	db := Default()
	db.Define("load", []DataSource{{Name: "value", Kind: metric.KindGauge}})

	sources, err := db.Lookup("load")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "value", sources[0].Name)
}
