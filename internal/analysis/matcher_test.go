package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCourses(t *testing.T) {
	catalog := sampleCourses()

	matched := MatchCourses([]string{"software_engineer"}, catalog)
	require.Len(t, matched, 1)
	assert.Equal(t, "c1", matched[0].ID)

	matched = MatchCourses([]string{"veterinarian", "artist"}, catalog)
	require.Len(t, matched, 2)
	assert.Equal(t, "c2", matched[0].ID)
	assert.Equal(t, "c3", matched[1].ID)
}

func TestMatchCoursesEmpty(t *testing.T) {
	assert.NotNil(t, MatchCourses(nil, sampleCourses()))
	assert.Empty(t, MatchCourses(nil, sampleCourses()))
	assert.Empty(t, MatchCourses([]string{"astronaut"}, sampleCourses()))
	assert.NotNil(t, MatchCourses([]string{"artist"}, nil))
}

func TestMatchCoursesNoDuplicates(t *testing.T) {
	matched := MatchCourses([]string{"software_engineer", "data_scientist"}, sampleCourses())

	require.Len(t, matched, 1)
	assert.Equal(t, "c1", matched[0].ID)
}
