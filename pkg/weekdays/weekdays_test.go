package weekdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameAndParseAgree(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		parsed, err := Parse(Name(d))
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	wd, err := Parse("Thu")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, wd)

	_, err = Parse("funday")
	assert.Error(t, err)
}

func TestFromDate(t *testing.T) {
	// 2024-06-03 is a Monday
	assert.Equal(t, Monday, FromDate(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, FromDate(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)))
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, WeekStart(time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStart(time.Date(2024, 6, 6, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStart(time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC)), "sunday belongs to the week that started on monday")
}

func TestNormalize(t *testing.T) {
	days, err := Normalize([]string{"Friday", "monday", "MON", "", "wed"})
	require.NoError(t, err)
	assert.Equal(t, []string{Monday, Wednesday, Friday}, days)

	_, err = Normalize([]string{"monday", "someday"})
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-07-01", Key(d))

	_, err = ParseDate("07/01/2024")
	assert.Error(t, err)
}

func TestParseShorthand(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"M W F", []string{Monday, Wednesday, Friday}},
		{"Tu/Th", []string{Tuesday, Thursday}},
		{"Mon-Fri", []string{Monday, Tuesday, Wednesday, Thursday, Friday}},
		{"MON - FRI", []string{Monday, Tuesday, Wednesday, Thursday, Friday}},
		{"6 days", []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}},
		{"1 day a week", []string{Monday}},
		{"daily", []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}},
		{"Sat & Sun", []string{Saturday, Sunday}},
		{"", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseShorthand(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseShorthand("every other blue moon")
	assert.Error(t, err)
}
