package textutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/depinfer/pkg/textutil"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.False(t, textutil.IsBinary(nil))
	assert.False(t, textutil.IsBinary([]byte("package com.x;\n")))
	assert.True(t, textutil.IsBinary([]byte("\xca\xfe\xba\xbe\x00\x00")))
}

func TestIsBinary_NullBeyondSniffWindow(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("a", textutil.BinarySniffLength) + "\x00")

	assert.False(t, textutil.IsBinary(data))
}

func TestStripBOM(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("package a;"), textutil.StripBOM([]byte("\xEF\xBB\xBFpackage a;")))
	assert.Equal(t, []byte("package a;"), textutil.StripBOM([]byte("package a;")))
	assert.Empty(t, textutil.StripBOM(nil))
}
