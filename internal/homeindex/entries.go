package homeindex

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Entry is one linked project of the projects section.
type Entry struct {
	Title       string
	Slug        string
	Description string
}

// Entries parses doc as Markdown and returns the list items linked from the
// projects section, in document order. The section is the first heading
// whose text is "Projects" up to the next heading that follows an entry.
func Entries(doc []byte) []Entry {
	root := goldmark.New().Parser().Parse(text.NewReader(doc))

	var entries []Entry
	inSection := false
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*gmast.Heading); ok {
			title := strings.TrimSpace(plainText(h, doc))
			if !inSection {
				inSection = strings.EqualFold(title, "Projects")
				continue
			}
			if len(entries) > 0 {
				break
			}
			continue
		}
		if !inSection {
			continue
		}
		list, ok := n.(*gmast.List)
		if !ok {
			continue
		}
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			if e, ok := entryFromItem(item, doc); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries
}

func entryFromItem(item gmast.Node, src []byte) (Entry, bool) {
	block := item.FirstChild()
	if block == nil {
		return Entry{}, false
	}

	var (
		entry Entry
		found bool
		desc  strings.Builder
	)
	for c := block.FirstChild(); c != nil; c = c.NextSibling() {
		if link, ok := c.(*gmast.Link); ok && !found {
			entry.Title = strings.TrimSpace(plainText(link, src))
			entry.Slug = Slug(string(link.Destination))
			found = true
			continue
		}
		if found {
			desc.WriteString(plainText(c, src))
		}
	}
	if !found || entry.Slug == "" {
		return Entry{}, false
	}
	entry.Description = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(desc.String()), "-–:"))
	return entry, true
}

// plainText concatenates the text segments below n.
func plainText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}
