// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalogComplete(t *testing.T) {
	for id, is := range issues {
		if is.Id() != id {
			t.Errorf("issues[%d].Id() = %d", id, is.Id())
		}
		if strings.TrimSpace(string(is.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", id)
		}
	}
}

func TestGet(t *testing.T) {
	is := Get(WatchRootUnresolvedId)
	if is == nil {
		t.Fatal("Get(WatchRootUnresolvedId) returned nil")
	}
	if !strings.Contains(string(is.MarkdownMsg()), "SHELLPLUS_PROJECT_ROOT") {
		t.Error("watch root guide should mention SHELLPLUS_PROJECT_ROOT")
	}
	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}

func TestRender(t *testing.T) {
	original := render
	t.Cleanup(func() { render = original })

	var gotMd, gotStyle string
	render = func(in, stylePath string) (string, error) {
		gotMd, gotStyle = in, stylePath
		return "rendered", nil
	}

	out, err := Get(DatabaseOpenFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "rendered" || gotStyle != "notty" {
		t.Errorf("Render() = %q style %q", out, gotStyle)
	}
	if !strings.Contains(gotMd, "## See also") || !strings.Contains(gotMd, "modernc.org/sqlite") {
		t.Errorf("rendered markdown missing links:\n%s", gotMd)
	}
}
