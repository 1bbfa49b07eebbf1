package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	digest, err := Hash("N0rthw1nd#Harbor")
	require.NoError(t, err)
	assert.NotEmpty(t, digest)
	assert.NotEqual(t, "N0rthw1nd#Harbor", digest)

	match, err := Compare("N0rthw1nd#Harbor", digest)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Compare("wrong-password", digest)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("N0rthw1nd#Harbor")
	require.NoError(t, err)

	second, err := Hash("N0rthw1nd#Harbor")
	require.NoError(t, err)

	// Each digest embeds a fresh random salt
	assert.NotEqual(t, first, second)

	for _, digest := range []string{first, second} {
		match, err := Compare("N0rthw1nd#Harbor", digest)
		require.NoError(t, err)
		assert.True(t, match)
	}
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCompareEmptyArguments(t *testing.T) {
	digest, err := Hash("N0rthw1nd#Harbor")
	require.NoError(t, err)

	_, err = Compare("", digest)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = Compare("N0rthw1nd#Harbor", "")
	assert.ErrorIs(t, err, ErrEmptyDigest)
}

func TestGenerateSalt(t *testing.T) {
	first, err := GenerateSalt()
	require.NoError(t, err)
	assert.Greater(t, len(first), 20)

	second, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashWithSaltIsDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	first, err := HashWithSalt("N0rthw1nd#Harbor", salt)
	require.NoError(t, err)

	second, err := HashWithSalt("N0rthw1nd#Harbor", salt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashWithSaltVariesWithInputs(t *testing.T) {
	saltA, err := GenerateSalt()
	require.NoError(t, err)
	saltB, err := GenerateSalt()
	require.NoError(t, err)

	base, err := HashWithSalt("N0rthw1nd#Harbor", saltA)
	require.NoError(t, err)

	otherSalt, err := HashWithSalt("N0rthw1nd#Harbor", saltB)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherSalt)

	otherPassword, err := HashWithSalt("Different#Pass1", saltA)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherPassword)
}

func TestHashWithSaltEmptyArguments(t *testing.T) {
	_, err := HashWithSalt("", "some-salt")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashWithSalt("N0rthw1nd#Harbor", "")
	assert.ErrorIs(t, err, ErrEmptySalt)
}
