// Package report renders the human-readable messages a sweep produces.
//
// Counts are pluralized through an x/text message catalog rather than
// string concatenation so that "1 file" and "2 files" come from one key.
package report

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Prefix tags every line gensweep prints about a sweep.
const Prefix = "[gensweep]"

// OldRootKeptWarning explains why a reconfigured output root was left alone.
const OldRootKeptWarning = "Detected a change of the output directory. " +
	"Because the old output directory is not inside the project root, it was not removed."

const (
	filesKey = "%d files"
	dirsKey  = "%d directories"
)

var printer = newPrinter()

func newPrinter() *message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	mustSet(b, filesKey, plural.Selectf(1, "%d",
		"=1", "%d file",
		plural.Other, "%d files",
	))
	mustSet(b, dirsKey, plural.Selectf(1, "%d",
		"=1", "%d directory",
		plural.Other, "%d directories",
	))
	return message.NewPrinter(language.English, message.Catalog(b))
}

func mustSet(b *catalog.Builder, key string, msg catalog.Message) {
	if err := b.Set(language.English, key, msg); err != nil {
		panic(fmt.Sprintf("report: register %q: %v", key, err))
	}
}

// Files renders a pluralized file count, e.g. "1 file" or "3 files".
func Files(n int) string {
	return printer.Sprintf(filesKey, n)
}

// Directories renders a pluralized directory count.
func Directories(n int) string {
	return printer.Sprintf(dirsKey, n)
}

// Summary is the one-line result of a per-file sweep. The directory clause
// is omitted when no directory was pruned.
func Summary(files, dirs int) string {
	if dirs == 0 {
		return "Removed " + Files(files)
	}
	return "Removed " + Files(files) + " and " + Directories(dirs)
}

// OldRootRemoved is printed after an abandoned output root was deleted.
func OldRootRemoved(dir string) string {
	return "Removed the old output directory: " + dir
}
