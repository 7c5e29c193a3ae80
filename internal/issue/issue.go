// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
)

// Id identifies a Markdown guide in the catalog.
type Id int

const (
	// WatchRootUnresolvedId: live reload requested without a watch root.
	WatchRootUnresolvedId Id = iota + 1
	// WatchRootInvalidId: the watch root does not exist or is not a directory.
	WatchRootInvalidId
	// FrontendUnavailableId: an explicitly requested front-end cannot run.
	FrontendUnavailableId
	// NoFrontendId: every front-end of the default chain was unavailable.
	NoFrontendId
	// ConfigLoadFailedId: the configuration file could not be loaded.
	ConfigLoadFailedId
	// StartupScriptFailedId: the startup script raised an error.
	StartupScriptFailedId
	// DatabaseOpenFailedId: the configured database could not be opened.
	DatabaseOpenFailedId
)

type (
	// MarkdownMsg is Markdown source rendered by glamour.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry with a Markdown guide.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

var (
	render = glamour.Render

	watchRootUnresolvedIssue = &Issue{
		id: WatchRootUnresolvedId,
		mdMsg: `
# Live reload needs a watch root

shellplus could not work out which directory to watch for model changes.

## Things you can try
- Export the project root before starting the shell:
~~~
$ export SHELLPLUS_PROJECT_ROOT=$PWD
$ shellplus --autoreload
~~~
- Or set it in ` + "`shellplus.cue`" + `:
~~~cue
project_root: "."
~~~
- Or drop ` + "`--autoreload`" + ` to start without live reload.`,
		extLinks: []HttpLink{"https://github.com/fsnotify/fsnotify"},
	}

	watchRootInvalidIssue = &Issue{
		id: WatchRootInvalidId,
		mdMsg: `
# The watch root is not a directory

The configured project root does not exist, or it points to a file.

## Things you can try
- Check for typos in ` + "`SHELLPLUS_PROJECT_ROOT`" + ` or ` + "`project_root`" + `
- Environment variables inside the path are expanded; make sure they are set`,
	}

	frontendUnavailableIssue = &Issue{
		id: FrontendUnavailableId,
		mdMsg: `
# The requested shell is not available

You asked for a specific interactive front-end, and shellplus will not
silently pick another one.

## Things you can try
- Rich front-ends (` + "`--ishell`" + `, ` + "`--tui`" + `) need an interactive terminal on stdin and stdout
- Use ` + "`--plain`" + ` when piping input or running under a CI job
- Rebuild shellplus without the build tag that removed the front-end`,
	}

	noFrontendIssue = &Issue{
		id: NoFrontendId,
		mdMsg: `
# Could not load any interactive environment

Every front-end in the default chain (ishell, tui, plain) was unavailable.

## Things you can try
- Run with ` + "`--verbose`" + ` to see why each front-end was skipped
- Start the notebook server instead:
~~~
$ shellplus --notebook
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file contains invalid CUE or values outside the schema.

## Things you can try
- Show the effective configuration:
~~~
$ shellplus config show
~~~
- Validate the file with the ` + "`cue`" + ` command-line tool`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	startupScriptFailedIssue = &Issue{
		id: StartupScriptFailedId,
		mdMsg: `
# The startup script failed

The script named by ` + "`SHELLPLUS_STARTUP`" + ` raised an error. Only references
to names that do not exist are ignored; every other error stops the session.

## Things you can try
- Run the shell with ` + "`--no-startup-script`" + ` and load the script by hand
- Check the stack trace printed above for the failing line`,
	}

	databaseOpenFailedIssue = &Issue{
		id: DatabaseOpenFailedId,
		mdMsg: `
# Failed to open the database

The ` + "`database`" + ` section of the configuration points to a database that
could not be opened.

## Things you can try
- Check ` + "`database.dsn`" + ` (for sqlite, a file path or ` + "`file::memory:`" + `)
- Remove the ` + "`database`" + ` section to start without the ` + "`db`" + ` binding`,
		extLinks: []HttpLink{"https://pkg.go.dev/modernc.org/sqlite"},
	}

	issues = map[Id]*Issue{
		watchRootUnresolvedIssue.Id(): watchRootUnresolvedIssue,
		watchRootInvalidIssue.Id():    watchRootInvalidIssue,
		frontendUnavailableIssue.Id(): frontendUnavailableIssue,
		noFrontendIssue.Id():          noFrontendIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		startupScriptFailedIssue.Id(): startupScriptFailedIssue,
		databaseOpenFailedIssue.Id():  databaseOpenFailedIssue,
	}
)

// Id returns the catalog identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the Markdown source of the guide.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guide with the given glamour style ("dark", "light",
// "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- " + string(link) + "\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
