// Package dat parses Logiqx-style DAT manifests: an XML header naming
// the system and its catalog, followed by one <game name="..."> element
// per wanted item.
package dat

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrNoGames = errors.New("no games found in the DAT file")

// catalogURLs maps the <header><url> value onto a catalog label.
var catalogURLs = map[string]string{
	"https://www.no-intro.org": "No-Intro",
	"http://redump.org/":       "Redump",
}

// datPostfixes are decorations some DAT managers append to the system
// name; they are stripped for display and directory naming.
var datPostfixes = []string{
	" (Retool)",
}

// Manifest is the parsed catalog manifest.
type Manifest struct {
	// System is the header name with known postfixes stripped.
	System string
	// Catalog is the label derived from the header URL ("No-Intro",
	// "Redump") or empty when the URL is absent or unrecognized.
	Catalog string
	// CatalogURL is the raw header URL, kept for diagnostics.
	CatalogURL string
	// Games holds every distinct <game name>, in document order.
	Games []string
}

// Label describes the manifest for log lines: "No-Intro: Nintendo DS"
// or just the system name when the catalog is unknown.
func (m *Manifest) Label() string {
	if m.Catalog == "" {
		return m.System
	}
	return m.Catalog + ": " + m.System
}

// ParseFile parses the DAT manifest at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a DAT manifest from r with a streaming token walk, so
// manifests with tens of thousands of entries never materialize as a
// DOM. Duplicate game names are dropped; order is preserved. A
// manifest without a single game is an error.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{System: "Unknown System"}
	seen := make(map[string]struct{})
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing DAT: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "header":
			var hdr struct {
				Name string `xml:"name"`
				Url  string `xml:"url"`
			}
			if err := dec.DecodeElement(&hdr, &start); err != nil {
				return nil, fmt.Errorf("parsing DAT header: %w", err)
			}
			if hdr.Name != "" {
				m.System = stripPostfixes(hdr.Name)
			}
			if hdr.Url != "" {
				m.CatalogURL = hdr.Url
				m.Catalog = catalogURLs[hdr.Url]
			}
		case "game":
			for _, attr := range start.Attr {
				if attr.Name.Local != "name" || attr.Value == "" {
					continue
				}
				if _, dup := seen[attr.Value]; dup {
					break
				}
				seen[attr.Value] = struct{}{}
				m.Games = append(m.Games, attr.Value)
				break
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("parsing DAT: %w", err)
			}
		}
	}

	if len(m.Games) == 0 {
		return nil, ErrNoGames
	}
	return m, nil
}

func stripPostfixes(name string) string {
	for _, fix := range datPostfixes {
		name = strings.ReplaceAll(name, fix, "")
	}
	return name
}
