package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestNumber(t *testing.T) {
	v, ok := Number(gjson.Parse(`123400`))
	assert.True(t, ok)
	assert.Equal(t, 123400.0, v)

	v, ok = Number(gjson.Parse(`"₩123,400"`))
	assert.True(t, ok)
	assert.Equal(t, 123400.0, v)

	v, ok = Number(gjson.Parse(`"$1,234.50"`))
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)

	_, ok = Number(gjson.Parse(`"sold out"`))
	assert.False(t, ok)
	_, ok = Number(gjson.Parse(`0`))
	assert.False(t, ok)
	_, ok = Number(gjson.Parse(`null`))
	assert.False(t, ok)
}

func TestRoundMedianAverage(t *testing.T) {
	assert.Equal(t, int64(100), Round(99.5))
	assert.Equal(t, int64(99), Round(99.49))

	assert.Nil(t, Median(nil))
	assert.Equal(t, int64(20), *Median([]int64{30, 10, 20}))
	assert.Equal(t, int64(25), *Median([]int64{30, 10, 20, 40}))
	assert.Equal(t, int64(16), *Median([]int64{10, 21}))

	assert.Nil(t, Average(nil))
	assert.Equal(t, int64(17), *Average([]int64{10, 20, 20}))
}
