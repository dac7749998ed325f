package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jh3/tabsnap/internal/cursor"
	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
	"github.com/jh3/tabsnap/internal/host/hosttest"
)

func TestCapture_NothingToSave(t *testing.T) {
	wb := hosttest.NewWorkbench()
	wb.AddInput(1, host.TabInput{Kind: host.KindOther, URI: "terminal://1"}, true)

	_, err := Capture(context.Background(), wb, cursor.New())
	assert.ErrorIs(t, err, ErrNothingToSave)
}

func TestCapture_Layout(t *testing.T) {
	wb := hosttest.NewWorkbench()
	wb.AddTab(1, "file:///a.go", false)
	wb.AddInput(1, host.TabInput{Kind: host.KindOther}, false)
	wb.AddTab(1, "file:///b.go", true)
	wb.AddInput(2, host.TabInput{Kind: host.KindDiff, Original: "git:///c.go", Modified: "file:///c.go"}, true)
	wb.AddInput(2, host.TabInput{Kind: host.KindMerge, Result: "file:///m.go"}, false)
	wb.FocusGroup(2)

	tr := cursor.New()
	tr.Set("file:///b.go", host.Position{Line: 10, Character: 3})

	doc, err := Capture(context.Background(), wb, tr)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	require.Len(t, doc.Tabs, 4)

	assert.Equal(t, Tab{URI: "file:///a.go", GroupIndex: 0, TabIndex: 0, ViewColumn: 1}, doc.Tabs[0])
	assert.Equal(t, Tab{
		URI: "file:///b.go", GroupIndex: 0, TabIndex: 2, ViewColumn: 1,
		IsGroupActive: true, Cursor: &Cursor{Line: 10, Character: 3},
	}, doc.Tabs[1])
	assert.Equal(t, Tab{
		URI: "file:///c.go", GroupIndex: 1, TabIndex: 0, ViewColumn: 2,
		IsGroupActive: true, IsGlobalActive: true,
	}, doc.Tabs[2])
	assert.Equal(t, "file:///m.go", doc.Tabs[3].URI)
}

func TestRoundTrip(t *testing.T) {
	wb := hosttest.NewWorkbench()
	wb.AddTab(1, "file:///a.go", false)
	wb.AddTab(1, "file:///b.go", true)
	wb.AddTab(2, "file:///c.go", true)
	wb.AddInput(2, host.TabInput{Kind: host.KindOther}, false)

	doc, err := Capture(context.Background(), wb, cursor.New())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "work.json")
	require.NoError(t, Write(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, loaded.Tabs, 3)
	assert.Equal(t, map[string]bool{"file:///a.go": true, "file:///b.go": true, "file:///c.go": true}, loaded.URIs())
	assert.Equal(t, doc, loaded)
}

func TestMarshal_Format(t *testing.T) {
	data, err := Marshal(Document{Version: CurrentVersion, Tabs: []Tab{{
		URI: "file:///a.go", ViewColumn: 1, IsGroupActive: true, IsGlobalActive: true,
		Cursor: &Cursor{},
	}}})
	require.NoError(t, err)

	want := `{
  "version": 2,
  "tabs": [
    {
      "uri": "file:///a.go",
      "groupIndex": 0,
      "tabIndex": 0,
      "viewColumn": 1,
      "isGroupActive": true,
      "isGlobalActive": true,
      "cursor": {
        "line": 0,
        "character": 0
      }
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestParse_MissingVersionDefaultsToLegacy(t *testing.T) {
	doc, err := Parse("old.json", []byte(`{"tabs": [{"uri": "file:///a.go", "groupIndex": 0, "tabIndex": 0, "viewColumn": 1, "isGroupActive": true, "isGlobalActive": true}]}`))
	require.NoError(t, err)

	assert.Equal(t, LegacyVersion, doc.Version)
	require.Len(t, doc.Tabs, 1)
	assert.Nil(t, doc.Tabs[0].Cursor)
}

func TestParse_NonNumericVersion(t *testing.T) {
	doc, err := Parse("x.json", []byte(`{"version": "two", "tabs": []}`))
	require.NoError(t, err)
	assert.Equal(t, LegacyVersion, doc.Version)
	assert.Empty(t, doc.Tabs)
}

func TestParse_OutOfRangeVersion(t *testing.T) {
	for _, v := range []string{"null", "0", "-3", "1e300"} {
		doc, err := Parse("x.json", []byte(`{"version": `+v+`, "tabs": []}`))
		require.NoError(t, err, v)
		assert.Equal(t, LegacyVersion, doc.Version, v)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"tabs missing", `{"version": 2}`},
		{"tabs not array", `{"version": 2, "tabs": {"uri": "x"}}`},
		{"tabs null", `{"tabs": null}`},
		{"top level array", `[{"uri": "x"}]`},
		{"not json", `version: 2`},
		{"null document", `null`},
		{"bad tab entry", `{"tabs": [{"groupIndex": "first"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.json", []byte(tt.data))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInvalid))
		})
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	doc, err := Parse("bom.json", append([]byte("\xef\xbb\xbf"), []byte(`{"version": 2, "tabs": []}`)...))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "odd.json"), 0755))

	_, err := Load(filepath.Join(dir, "odd.json"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIO))
}

func TestReplayOrder(t *testing.T) {
	doc := Document{Tabs: []Tab{
		{URI: "g0-t1", GroupIndex: 0, TabIndex: 1},
		{URI: "g0-t0", GroupIndex: 0, TabIndex: 0},
		{URI: "g0-active", GroupIndex: 0, TabIndex: 0, IsGroupActive: true},
	}}

	var got []string
	for _, tab := range doc.ReplayOrder() {
		got = append(got, tab.URI)
	}
	assert.Equal(t, []string{"g0-t0", "g0-t1", "g0-active"}, got)
}

func TestReplayOrder_Groups(t *testing.T) {
	doc := Document{Tabs: []Tab{
		{URI: "g3-a", GroupIndex: 3, TabIndex: 0, IsGroupActive: true},
		{URI: "g1-b", GroupIndex: 1, TabIndex: 4},
		{URI: "g3-b", GroupIndex: 3, TabIndex: 2},
		{URI: "g1-a", GroupIndex: 1, TabIndex: 0, IsGroupActive: true},
	}}

	var got []string
	for _, tab := range doc.ReplayOrder() {
		got = append(got, tab.URI)
	}
	assert.Equal(t, []string{"g1-b", "g1-a", "g3-b", "g3-a"}, got)
	assert.Equal(t, "g3-a", doc.Tabs[0].URI, "ReplayOrder must not reorder the document")
}

func TestGlobalActive_LastWins(t *testing.T) {
	doc := Document{Tabs: []Tab{
		{URI: "a", IsGlobalActive: true},
		{URI: "b"},
		{URI: "c", IsGlobalActive: true},
	}}

	tab, ok := doc.GlobalActive()
	require.True(t, ok)
	assert.Equal(t, "c", tab.URI)

	_, ok = Document{Tabs: []Tab{{URI: "a"}}}.GlobalActive()
	assert.False(t, ok)
}
