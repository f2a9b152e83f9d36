// Package display formats user-facing terminal output that is not part of the
// run log: validation warnings and the file listing of the validate command.
//
// # Warnings
//
//	warning := display.WarnMissingSolutions([]string{"sort"})
//	warning.Display(os.Stderr)
//
// # File listing
//
//	listing := display.NewFileListing(os.Stdout, len(files))
//	listing.Start(dir)
//	for _, f := range files {
//	    listing.Step(f.Name, len(f.Content), used)
//	}
//	listing.Complete()
//
// Colors use raw ANSI codes and can be turned off with NoColor.
package display
