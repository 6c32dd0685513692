package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// mockParser implements FormatParser for testing.
type mockParser struct {
	title string
}

func (m *mockParser) Parse(_ *binary.SafeReader, _ *types.Context, tags *types.Tags) error {
	tags.Set("title", m.title)
	return nil
}

type mockTwoPass struct {
	mockParser
}

func (m *mockTwoPass) ParseDuration(_ *binary.SafeReader, _ *types.Context, tags *types.Tags) error {
	tags.Set("duration", 2.5)
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	// Use a format that's unlikely to conflict with real registrations
	format := types.Format(999)
	Register(format, &mockParser{title: "test"})

	got := Get(format)
	require.NotNil(t, got)

	tags := &types.Tags{}
	require.NoError(t, got.Parse(nil, nil, tags))
	assert.Equal(t, "test", tags.Title)
	assert.Contains(t, Formats(), format)

	_, ok := got.(DurationParser)
	assert.False(t, ok)
}

func TestGet_Unregistered(t *testing.T) {
	assert.Nil(t, Get(types.Format(998)))
}

func TestDurationParser(t *testing.T) {
	format := types.Format(997)
	Register(format, &mockTwoPass{})

	dp, ok := Get(format).(DurationParser)
	require.True(t, ok)

	tags := &types.Tags{}
	require.NoError(t, dp.ParseDuration(nil, nil, tags))
	assert.Equal(t, 2.5, tags.Duration)
}
