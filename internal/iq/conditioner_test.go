package iq

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/doismellburning/gnssrecv/internal/gnsserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genI8Block(n int) []byte {
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		b[2*i] = byte(i % 127)
		b[2*i+1] = byte((i + 1) % 127)
	}
	return b
}

func TestConditionerBlockSizeAndEpochs(t *testing.T) {
	n := N(DefaultFs)
	raw := genI8Block(n * 3)
	r := bytes.NewReader(raw)

	c := NewConditioner(EncodingI8, DefaultFs, DefaultFs)

	for i := 0; i < 3; i++ {
		blk, err := c.Next(r)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), blk.Epoch)
		assert.Len(t, blk.Samples, n)
		assert.False(t, blk.Truncated)
	}
}

func TestConditionerTruncatedFinalBlock(t *testing.T) {
	n := N(DefaultFs)
	raw := genI8Block(n/2 + 5)
	r := bytes.NewReader(raw)

	c := NewConditioner(EncodingI8, DefaultFs, DefaultFs)

	blk, err := c.Next(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gnsserr.ErrInputTruncated))
	assert.True(t, blk.Truncated)
	assert.Len(t, blk.Samples, n)

	_, err = c.Next(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestConditionerNoResamplerWhenRatesMatch(t *testing.T) {
	c := NewConditioner(EncodingI8, DefaultFs, DefaultFs)
	assert.Nil(t, c.resampler)
}

func TestConditionerResamples(t *testing.T) {
	inRate := DefaultFs * 2
	n := N(DefaultFs)
	raw := genI8Block(int(inRate/1000) * 3)
	r := bytes.NewReader(raw)

	c := NewConditioner(EncodingI8, inRate, DefaultFs)
	require.NotNil(t, c.resampler)

	blk, err := c.Next(r)
	require.NoError(t, err)
	assert.Len(t, blk.Samples, n)
}
