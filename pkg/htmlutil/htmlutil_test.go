package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  Black   Lotus\n", expected: "Black Lotus"},
		{input: "( 15,43 € )", expected: "( 15,43 € )"},
		{input: "\tPaid\n\n 3 ", expected: "Paid 3"},
		{input: "", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, CleanText(row.input))
	}
}

func TestOwnTextAndAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<h1>Black Lotus<span>Alpha - Singles</span></h1>
		<a href="/a">First</a><a>no href</a><a href=" /b ">Second <b>link</b></a>`))
	require.NoError(t, err)

	require.Equal(t, "Black Lotus", OwnText(doc.Find("h1").Get(0)))
	require.Equal(t, "Black LotusAlpha - Singles", GetText(doc.Find("h1").Get(0)))

	anchors := GetAnchors(context.Background(), doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "First", Href: "/a"},
		{Name: "Second link", Href: "/b"},
	}, anchors)
}
