package extract

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	fields *Fields
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractFields(ctx context.Context, rawText string) (*Fields, error) {
	f.calls++
	return f.fields, f.err
}

func TestChainStopsAtFirstUsableResult(t *testing.T) {
	primary := &fakeExtractor{fields: &Fields{Skills: []string{"go"}}}
	fallback := &fakeExtractor{fields: &Fields{Skills: []string{"python"}}}

	fields, err := Chain{primary, fallback}.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, fields.Skills)
	assert.Equal(t, 0, fallback.calls)
}

func TestChainFallsBackOnErrorAndEmptyResult(t *testing.T) {
	failing := &fakeExtractor{err: errors.New("model unavailable")}
	empty := &fakeExtractor{fields: &Fields{}}
	fallback := &fakeExtractor{fields: &Fields{Email: "a@b.com"}}

	fields, err := Chain{failing, empty, fallback}.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", fields.Email)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestChainFailsOnlyWhenAllFail(t *testing.T) {
	a := &fakeExtractor{err: errors.New("a down")}
	b := &fakeExtractor{err: errors.New("b down")}

	_, err := Chain{a, b}.ExtractFields(context.Background(), "text")
	assert.Error(t, err)
}

func TestChainAllEmptyYieldsEmptyFields(t *testing.T) {
	a := &fakeExtractor{fields: &Fields{}}

	fields, err := Chain{a}.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.False(t, fields.Usable())
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
