package fingerprint

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_SameContentSameFingerprintRegardlessOfChunking(t *testing.T) {
	t.Parallel()

	for _, algorithm := range []string{AlgorithmBLAKE3, AlgorithmBLAKE2b} {
		t.Run(algorithm, func(t *testing.T) {
			t.Parallel()

			c, err := New(algorithm)
			require.NoError(t, err)

			content := bytes.Repeat([]byte("knowledge base content "), 4096)

			whole, n, err := c.Compute(bytes.NewReader(content))
			require.NoError(t, err)
			assert.Equal(t, int64(len(content)), n)

			oneByte, _, err := c.Compute(iotest.OneByteReader(bytes.NewReader(content)))
			require.NoError(t, err)

			half, _, err := c.Compute(iotest.HalfReader(bytes.NewReader(content)))
			require.NoError(t, err)

			multi, _, err := c.Compute(io.MultiReader(
				bytes.NewReader(content[:7]),
				bytes.NewReader(content[7:1000]),
				bytes.NewReader(content[1000:]),
			))
			require.NoError(t, err)

			assert.Equal(t, whole, oneByte)
			assert.Equal(t, whole, half)
			assert.Equal(t, whole, multi)
		})
	}
}

func TestCompute_SingleByteDifference(t *testing.T) {
	t.Parallel()

	c, err := New(AlgorithmBLAKE3)
	require.NoError(t, err)

	a, _, err := c.Compute(strings.NewReader("alpha"))
	require.NoError(t, err)
	b, _, err := c.Compute(strings.NewReader("alphb"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCompute_AlgorithmsDiffer(t *testing.T) {
	t.Parallel()

	b3, err := New(AlgorithmBLAKE3)
	require.NoError(t, err)
	b2, err := New(AlgorithmBLAKE2b)
	require.NoError(t, err)

	x, _, err := b3.Compute(strings.NewReader("beta"))
	require.NoError(t, err)
	y, _, err := b2.Compute(strings.NewReader("beta"))
	require.NoError(t, err)

	assert.NotEqual(t, x, y)
}

func TestCompute_EmptyContent(t *testing.T) {
	t.Parallel()

	c, err := New("")
	require.NoError(t, err)

	fp, n, err := c.Compute(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, fp.String(), 64)
}

func TestCompute_ReadError(t *testing.T) {
	t.Parallel()

	c, err := New(AlgorithmBLAKE3)
	require.NoError(t, err)

	readErr := errors.New("connection reset")

	_, _, err = c.Compute(io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(readErr)))
	assert.ErrorIs(t, err, readErr)
	assert.ErrorContains(t, err, "fingerprint/Compute")
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	t.Parallel()

	c, err := New("md5")
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := New(AlgorithmBLAKE3)
	require.NoError(t, err)

	fp, _, err := c.Compute(strings.NewReader("gamma"))
	require.NoError(t, err)

	parsed, err := Parse(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	_, err = Parse("abcd")
	assert.Error(t, err)

	_, err = Parse("not-hex")
	assert.Error(t, err)
}
