package listing

import (
	"net/url"
	"path"

	"github.com/datgrab/datgrab/pkg/grablib"
)

// Reconciliation is the result of matching a manifest's wanted names
// against the remote listing. Files preserves manifest order; Missing
// holds the wanted names with no remote counterpart, also in order.
type Reconciliation struct {
	Files   []grablib.RemoteFile
	Missing []string
	Wanted  int
}

// Found returns the number of wanted entries matched to a remote file.
func (r *Reconciliation) Found() int { return len(r.Files) }

// Match reconciles wanted names against the listing entries. A remote
// entry's key is its title minus the extension; a wanted name matches
// by exact equality with that key. Entry hrefs are resolved against
// baseURL, the URL of the listing page itself.
func Match(wanted []string, entries []Entry, baseURL string) (*Reconciliation, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	available := make(map[string]grablib.RemoteFile, len(entries))
	for _, e := range entries {
		ref, err := url.Parse(e.Href)
		if err != nil {
			continue
		}
		key := trimExt(e.Title)
		if _, dup := available[key]; dup {
			continue
		}
		available[key] = grablib.RemoteFile{
			DisplayName: key,
			FileName:    e.Title,
			Url:         base.ResolveReference(ref).String(),
		}
	}

	rec := &Reconciliation{Wanted: len(wanted)}
	for _, name := range wanted {
		file, ok := available[name]
		if !ok {
			rec.Missing = append(rec.Missing, name)
			continue
		}
		file.DisplayName = name
		rec.Files = append(rec.Files, file)
	}
	return rec, nil
}

// trimExt drops the final extension, mirroring how manifests name
// games without one ("Game (USA).zip" matches "Game (USA)").
func trimExt(name string) string {
	ext := path.Ext(name)
	return name[:len(name)-len(ext)]
}
