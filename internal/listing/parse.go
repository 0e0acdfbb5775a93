package listing

import (
	"errors"
	"io"

	"golang.org/x/net/html"
)

var ErrNoListingTable = errors.New("no file listing table found on page")

// Entry is one row of the remote listing: the full file name from the
// link's title attribute and its href, still URL-encoded, relative to
// the listing page.
type Entry struct {
	Title string
	Href  string
}

// Parse extracts the listing rows from a directory page. The layout is
// a <table id="list"> with one file per row, the first cell holding an
// anchor whose title is the exact file name. The parent-directory row
// (href "../") and rows without both attributes are dropped.
func Parse(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	table := findListTable(doc)
	if table == nil {
		return nil, ErrNoListingTable
	}

	var entries []Entry
	walk(table, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "tr" {
			return true
		}
		if e, ok := rowEntry(n); ok {
			entries = append(entries, e)
		}
		return false // one entry per row, skip nested content
	})
	return entries, nil
}

// rowEntry pulls the first anchor of the row's first cell.
func rowEntry(tr *html.Node) (Entry, bool) {
	var e Entry
	var found bool
	walk(tr, func(n *html.Node) bool {
		if found || n.Type != html.ElementNode || n.Data != "a" {
			return !found
		}
		title, href := attr(n, "title"), attr(n, "href")
		if title == "" || href == "" || href == "../" {
			found = true // first anchor decides the row, valid or not
			return false
		}
		e = Entry{Title: title, Href: href}
		found = true
		return false
	})
	return e, e.Title != ""
}

func findListTable(n *html.Node) *html.Node {
	var table *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c.Data == "table" && attr(c, "id") == "list" {
			table = c
			return false
		}
		return table == nil
	})
	return table
}

// walk visits n's subtree depth-first; fn returning false prunes the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
