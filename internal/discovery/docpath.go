// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path"
	"path/filepath"
	"strings"
)

// DocExt is the extension of generated documentation files.
const DocExt = ".md"

// DocRelPath replaces the extension of the slash-separated rel with ".md".
// Names without an extension, and dotfiles such as ".env", get ".md" appended.
func DocRelPath(rel string) string {
	ext := path.Ext(rel)
	if ext == "" || ext == path.Base(rel) {
		return rel + DocExt
	}
	return strings.TrimSuffix(rel, ext) + DocExt
}

// DocPath places DocRelPath(rel) under outputDir.
func DocPath(outputDir, rel string) string {
	return filepath.Join(outputDir, filepath.FromSlash(DocRelPath(rel)))
}
