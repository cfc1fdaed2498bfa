package roundid

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New()
	assert.Len(t, id, Length)
	require.NoError(t, Validate(id))

	created, err := Time(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), created, time.Minute)
}

func TestEncodeRoundTrip(t *testing.T) {
	want := uuid.MustParse("0190b7a2-6c1e-7cc4-9a3b-5f0e2d4c8a10")
	encoded := Encode(want)
	assert.Len(t, encoded, Length)

	got, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIDsSortByCreation(t *testing.T) {
	var ids []string
	for range 5 {
		ids = append(ids, New())
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids: %v", ids)
}

func TestValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"too short", "01h2"},
		{"too long", "0123456789abcdefghjkmnpqrst0"},
		{"invalid character", "0123456789abcdefghjkmnpqru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.id))
		})
	}
}

func TestTimeRejectsRandomIDs(t *testing.T) {
	_, err := Time(Encode(uuid.New()))
	assert.Error(t, err)
}
