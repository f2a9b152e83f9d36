// Package fileutil loads candidate solution files from an exercise directory.
//
// # Behavior
//
// LoadSolutions enumerates the direct entries of a directory (it never
// recurses) and returns one models.SolutionFile per regular file, pairing the
// entry's base name with its full text content. Entries are returned in the
// order the file system reports them; callers that need a stable lookup order
// rely on the "first match wins" policy of the exercise matcher instead.
//
// Subdirectories are skipped. Names listed in LoadOptions.Exclude are skipped
// as well, which lets the CLI keep the rules file out of the solution set.
//
// # Errors
//
// Every failure is a *models.FileSystemError:
//   - the directory cannot be opened or listed
//   - an entry cannot be read
//   - an entry's content is not valid UTF-8 text
//
// Loading is all-or-nothing; a partial file set is never returned.
package fileutil
