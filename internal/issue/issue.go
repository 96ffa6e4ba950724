// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	MissingCredentialsId Id = iota + 1
	CredentialsRejectedId
	ConfigLoadFailedId
	UnknownDocTypeId
	NoSourceFilesId
	NotARepositoryId
	SyncFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links to autodoc documentation
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue page with the given glamour style ("dark",
// "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	missingCredentialsIssue = &Issue{
		id: MissingCredentialsId,
		mdMsg: `
# API credentials are missing!

autodoc needs an endpoint, an API key and a deployment name before it can
generate documentation.

## Things you can try:
- Export the variables in your shell:
~~~
$ export AZURE_OPENAI_ENDPOINT=https://my-resource.openai.azure.com
$ export AZURE_OPENAI_API_KEY=...
$ export AZURE_OPENAI_DEPLOYMENT_NAME=gpt-4o
~~~
- Or set them in autodoc.cue:
~~~cue
api: {
  endpoint:   "https://my-resource.openai.azure.com"
  deployment: "gpt-4o"
}
~~~
- Keep the key out of config files; prefer the environment variable.`,
		extLinks: []HttpLink{"https://learn.microsoft.com/azure/ai-services/openai/reference"},
	}

	credentialsRejectedIssue = &Issue{
		id: CredentialsRejectedId,
		mdMsg: `
# The API rejected the credentials!

The chat-completion endpoint answered with 401 or 403, so every further
request would fail the same way. The run was stopped.

## Things you can try:
- Check that AZURE_OPENAI_API_KEY belongs to the resource in AZURE_OPENAI_ENDPOINT
- Check that the deployment name exists on that resource
- Regenerate the key if it was rotated`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ autodoc config show
~~~
- Write a fresh default file and edit it:
~~~
$ autodoc config init
~~~
- Run with --verbose to see the full error chain`,
	}

	unknownDocTypeIssue = &Issue{
		id: UnknownDocTypeId,
		mdMsg: `
# Unknown documentation type!

DOC_TYPE (or --type) names a documentation type that is not in the prompt
catalog.

## Things you can try:
- List the available types:
~~~
$ autodoc types
~~~
- Add your own type in a TOML prompts file and point docs.prompts_file at it:
~~~toml
[types.changelog]
description = "Change-oriented notes"
system = "You are a release engineer."
user = "Summarize {{.Path}}:\n{{.Content}}"
~~~`,
	}

	noSourceFilesIssue = &Issue{
		id: NoSourceFilesId,
		mdMsg: `
# No source files matched!

The include patterns selected nothing under the source root.

## Things you can try:
- Check --root points at your sources
- Widen the patterns, e.g. --include '**/*.go'
- Make sure the exclude patterns do not cover the whole tree`,
	}

	notARepositoryIssue = &Issue{
		id: NotARepositoryId,
		mdMsg: `
# Not a git repository!

Change detection needs a git repository. Without one, every file is treated
as changed.

## Things you can try:
- Run autodoc inside a git checkout
- Pass --all to document every file on purpose`,
	}

	syncFailedIssue = &Issue{
		id: SyncFailedId,
		mdMsg: `
# Repository sync failed!

One of the fetch, merge or push steps failed. Nothing was rolled back.

## Things you can try:
- Check that the upstream remote exists:
~~~
$ git remote -v
~~~
- Resolve merge conflicts and push manually
- Preview the steps with autodoc sync --dry-run`,
	}

	issues = map[Id]*Issue{
		missingCredentialsIssue.Id():  missingCredentialsIssue,
		credentialsRejectedIssue.Id(): credentialsRejectedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		unknownDocTypeIssue.Id():      unknownDocTypeIssue,
		noSourceFilesIssue.Id():       noSourceFilesIssue,
		notARepositoryIssue.Id():      notARepositoryIssue,
		syncFailedIssue.Id():          syncFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
