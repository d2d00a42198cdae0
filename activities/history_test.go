package activities_test

import (
	"testing"

	"github.com/jrsteele09/homeschool-portal/activities"
	"github.com/stretchr/testify/require"
)

var history = []activities.HistoryItem{
	{ID: "1", Title: "Fractions", Subject: "Math", GradeLevel: "3", CreatedAt: "2026-01-24T10:00:00Z", Description: "Halves and quarters"},
	{ID: "2", Title: "Plant cells", Subject: "Science", GradeLevel: "10", CreatedAt: "2026-01-22T10:00:00Z"},
	{ID: "3", Title: "Spelling", Subject: "English", GradeLevel: "3", CreatedAt: "2026-01-23T10:00:00Z"},
	{ID: "4", Title: "Times tables", Subject: "Math", GradeLevel: "2", CreatedAt: "2026-01-21T10:00:00Z"},
}

func ids(items []activities.HistoryItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item.ID))
	}
	return out
}

func TestFilterAndSort(t *testing.T) {
	t.Run("no filter keeps order", func(t *testing.T) {
		got := activities.FilterAndSort(history, activities.HistoryFilter{}, activities.SortConfig{})
		require.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
	})

	t.Run("grade and subject", func(t *testing.T) {
		got := activities.FilterAndSort(history, activities.HistoryFilter{Grade: "3", Subject: "Math"}, activities.SortConfig{})
		require.Equal(t, []string{"1"}, ids(got))
	})

	t.Run("search is case insensitive across fields", func(t *testing.T) {
		got := activities.FilterAndSort(history, activities.HistoryFilter{SearchTerm: "QUARTERS"}, activities.SortConfig{})
		require.Equal(t, []string{"1"}, ids(got))

		got = activities.FilterAndSort(history, activities.HistoryFilter{SearchTerm: "math"}, activities.SortConfig{})
		require.Equal(t, []string{"1", "4"}, ids(got))
	})

	t.Run("newest first", func(t *testing.T) {
		got := activities.FilterAndSort(history, activities.HistoryFilter{}, activities.SortConfig{Key: "createdAt", Direction: activities.Descending})
		require.Equal(t, []string{"1", "3", "2", "4"}, ids(got))
	})

	t.Run("grades sort numerically", func(t *testing.T) {
		got := activities.FilterAndSort(history, activities.HistoryFilter{}, activities.SortConfig{Key: "gradeLevel", Direction: activities.Ascending})
		require.Equal(t, []string{"4", "1", "3", "2"}, ids(got))
	})

	t.Run("does not modify input", func(t *testing.T) {
		_ = activities.FilterAndSort(history, activities.HistoryFilter{}, activities.SortConfig{Key: "title", Direction: activities.Descending})
		require.Equal(t, []string{"1", "2", "3", "4"}, ids(history))
	})
}

func TestUniqueValues(t *testing.T) {
	require.Equal(t, []string{"10", "2", "3"}, activities.UniqueGrades(history))
	require.Equal(t, []string{"English", "Math", "Science"}, activities.UniqueSubjects(history))
	require.Empty(t, activities.UniqueGrades(nil))
}

func TestHistoryItem(t *testing.T) {
	require.Equal(t, "a/b.pdf", activities.HistoryItem{ID: "1", PDFKey: "a/b.pdf", S3Key: "c.pdf"}.DownloadKey())
	require.Equal(t, "c.pdf", activities.HistoryItem{ID: "1", S3Key: "c.pdf"}.DownloadKey())
	require.Equal(t, "homework-1.pdf", activities.HistoryItem{ID: "1"}.DownloadKey())
	require.Equal(t, "Untitled", activities.HistoryItem{}.DisplayTitle())

	share := history[0].ShareRequest()
	require.Equal(t, activities.ShareRequest{ItemID: "1", Title: "Fractions", Subject: "Math", GradeLevel: "3"}, share)
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "Jan 24, 2026, 10:05 AM", activities.FormatDate("2026-01-24T10:05:00Z"))
	require.Equal(t, "yesterday", activities.FormatDate("yesterday"))
}
