package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQueryEscapesWildcards(t *testing.T) {
	repo := NewInstructorRepository(nil)

	sql, args, err := repo.searchQuery("50%_off", 25).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "name ILIKE $1")
	assert.Contains(t, sql, "google_id ILIKE $4")
	assert.Contains(t, sql, "LIMIT 25")
	require.Len(t, args, 4)
	for _, arg := range args {
		assert.Equal(t, `%50\%\_off%`, arg)
	}
}

func TestForGoogleIDQueryOmitsArchived(t *testing.T) {
	repo := NewInstructorRepository(nil)

	sql, args, err := repo.forGoogleIDQuery("jane.doe", true).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "is_archived = $2")
	assert.Equal(t, []any{"jane.doe", false}, args)

	sql, args, err = repo.forGoogleIDQuery("jane.doe", false).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "is_archived")
	assert.Equal(t, []any{"jane.doe"}, args)
}

func TestRespondentRenameQuery(t *testing.T) {
	repo := NewFeedbackSessionRepository(nil)

	sql, args, err := repo.renameInsertQuery("CS101", "old@uni.edu", "new@uni.edu").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO feedback_session_instructor_respondents")
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
	assert.Equal(t, []any{"new@uni.edu", "CS101", "old@uni.edu"}, args)
}
