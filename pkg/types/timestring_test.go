package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString_Validate(t *testing.T) {
	assert.NoError(t, TimeString("00:00").Validate())
	assert.NoError(t, TimeString("10:30").Validate())
	assert.NoError(t, TimeString("23:59").Validate())

	assert.Error(t, TimeString("24:00").Validate())
	assert.Error(t, TimeString("10:60").Validate())
	assert.Error(t, TimeString("9:00").Validate())
	assert.Error(t, TimeString("").Validate())
	assert.Error(t, TimeString("abc").Validate())
}

func TestTimeString_Before(t *testing.T) {
	assert.True(t, TimeString("09:00").Before("10:00"))
	assert.True(t, TimeString("09:59").Before("10:00"))
	assert.False(t, TimeString("10:00").Before("10:00"))
	assert.False(t, TimeString("10:01").Before("10:00"))
}

func TestTimeString_Minutes(t *testing.T) {
	assert.Equal(t, 0, TimeString("00:00").Minutes())
	assert.Equal(t, 630, TimeString("10:30").Minutes())
	assert.Equal(t, 1439, TimeString("23:59").Minutes())
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("10:30"))
	assert.Equal(t, TimeString("10:30"), ts)

	// Postgres TIME с секундами
	require.NoError(t, ts.Scan("11:45:00"))
	assert.Equal(t, TimeString("11:45"), ts)

	require.NoError(t, ts.Scan([]byte("12:15:30")))
	assert.Equal(t, TimeString("12:15"), ts)

	require.NoError(t, ts.Scan(time.Date(2026, 1, 12, 14, 5, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("14:05"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.Equal(t, TimeString(""), ts)

	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("garbage"))
}

func TestTimeString_Value(t *testing.T) {
	v, err := TimeString("10:30").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:30", v)

	v, err = TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = TimeString("25:00").Value()
	assert.Error(t, err)
}
