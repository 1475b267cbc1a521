package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewsCsv(t *testing.T) {
	t.Run("HeaderSkipped", func(t *testing.T) {
		content := "review_text\nloved it\nhated it\n"
		reviews, err := ParseReviews("reviews.csv", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"loved it", "hated it"}, reviews)
	})

	t.Run("FirstRowWithDigitsKept", func(t *testing.T) {
		content := "5 stars would buy again\nterrible quality\n"
		reviews, err := ParseReviews("reviews.csv", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"5 stars would buy again", "terrible quality"}, reviews)
	})

	t.Run("SingleRowKept", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.csv", strings.NewReader("just one review\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"just one review"}, reviews)
	})

	t.Run("FirstColumnOnly", func(t *testing.T) {
		content := "text,rating\n\"good, solid product\",5\nbad value,1\n"
		reviews, err := ParseReviews("reviews.csv", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"good, solid product", "bad value"}, reviews)
	})

	t.Run("RaggedRows", func(t *testing.T) {
		content := "header row\none\ntwo,extra,columns\n"
		reviews, err := ParseReviews("reviews.csv", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, reviews)
	})

	t.Run("Empty", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.csv", strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})
}

func TestParseReviewsJson(t *testing.T) {
	t.Run("ListOfStrings", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.json", strings.NewReader(`["great stuff", "bad stuff"]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"great stuff", "bad stuff"}, reviews)
	})

	t.Run("ListOfObjects", func(t *testing.T) {
		content := `[{"text": "first"}, {"review": "second"}, {"comment": "third"}, {"content": "fourth"}, {"message": "fifth"}]`
		reviews, err := ParseReviews("reviews.json", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth"}, reviews)
	})

	t.Run("FieldPriority", func(t *testing.T) {
		// "text" outranks "comment" regardless of key order in the document.
		reviews, err := ParseReviews("reviews.json", strings.NewReader(`[{"comment": "ignored", "text": "kept"}]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, reviews)
	})

	t.Run("SingleObject", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.json", strings.NewReader(`{"message": "lone review"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"lone review"}, reviews)
	})

	t.Run("SkipsUnknownShapes", func(t *testing.T) {
		content := `["ok", 42, {"rating": 5}, {"content": "kept"}]`
		reviews, err := ParseReviews("reviews.json", strings.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, []string{"ok", "kept"}, reviews)
	})

	t.Run("InvalidJson", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.json", strings.NewReader(`{not json`))
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})

	t.Run("TopLevelScalar", func(t *testing.T) {
		reviews, err := ParseReviews("reviews.json", strings.NewReader(`"just a string"`))
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})
}

func TestParseReviewsTxt(t *testing.T) {
	content := "first review\r\n\n   \nsecond review   \nthird\n"
	reviews, err := ParseReviews("reviews.txt", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"first review", "second review", "third"}, reviews)
}

func TestParseReviewsUnsupportedFormat(t *testing.T) {
	_, err := ParseReviews("reviews.pdf", strings.NewReader("data"))
	assert.Error(t, err)
}

func TestFileFormat(t *testing.T) {
	ext, ok := FileFormat("Reviews.CSV")
	assert.True(t, ok)
	assert.Equal(t, ".csv", ext)

	_, ok = FileFormat("reviews.pdf")
	assert.False(t, ok)

	_, ok = FileFormat("no_extension")
	assert.False(t, ok)
}
