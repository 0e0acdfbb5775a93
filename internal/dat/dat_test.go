package dat

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleDAT = `<?xml version="1.0"?>
<datafile>
	<header>
		<name>Nintendo - Game Boy (Retool)</name>
		<description>Nintendo - Game Boy</description>
		<url>https://www.no-intro.org</url>
	</header>
	<game name="Tetris (World) (Rev 1)">
		<description>Tetris (World) (Rev 1)</description>
		<rom name="Tetris (World) (Rev 1).gb" size="32768" crc="46df91ad"/>
	</game>
	<game name="Alleyway (World)">
		<description>Alleyway (World)</description>
	</game>
	<game name="Tetris (World) (Rev 1)">
		<description>duplicate entry</description>
	</game>
</datafile>`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleDAT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.System != "Nintendo - Game Boy" {
		t.Errorf("system = %q, want postfix stripped", m.System)
	}
	if m.Catalog != "No-Intro" {
		t.Errorf("catalog = %q, want No-Intro", m.Catalog)
	}
	want := []string{"Tetris (World) (Rev 1)", "Alleyway (World)"}
	if !reflect.DeepEqual(m.Games, want) {
		t.Errorf("games = %v, want %v (ordered, deduped)", m.Games, want)
	}
	if m.Label() != "No-Intro: Nintendo - Game Boy" {
		t.Errorf("label = %q", m.Label())
	}
}

func TestParseUnknownCatalog(t *testing.T) {
	const in = `<datafile>
		<header><name>Some System</name><url>https://example.org</url></header>
		<game name="A"/>
	</datafile>`
	m, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Catalog != "" || m.CatalogURL != "https://example.org" {
		t.Errorf("catalog = %q url = %q", m.Catalog, m.CatalogURL)
	}
	if m.Label() != "Some System" {
		t.Errorf("label = %q", m.Label())
	}
}

func TestParseNoHeader(t *testing.T) {
	m, err := Parse(strings.NewReader(`<datafile><game name="A"/></datafile>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.System != "Unknown System" {
		t.Errorf("system = %q", m.System)
	}
}

func TestParseNoGames(t *testing.T) {
	const in = `<datafile><header><name>Empty</name></header></datafile>`
	if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrNoGames) {
		t.Fatalf("err = %v, want ErrNoGames", err)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse(strings.NewReader(`<datafile><game name="A">`)); err == nil {
		t.Fatalf("malformed XML accepted")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	if err := os.WriteFile(path, []byte(sampleDAT), 0666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(m.Games) != 2 {
		t.Fatalf("games = %d, want 2", len(m.Games))
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.dat")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
