/*
Package atomicfile writes a file so that readers never see it half-written.

Data goes to a temporary file in the destination directory. Close()
syncs it and replaces the destination with it. If anything fails,
the temporary file is removed and the destination is left as it was.

	func writeLines(path string, lines []string) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// a no-op after successful Close()
		defer f.RemoveIfNotClosed()

		for _, s := range lines {
			if _, err = f.WriteString(s + "\n"); err != nil {
				return err
			}
		}
		return f.Close()
	}

Replacing is done with a rename, which is atomic on a single file system.
On platforms that report rename as unsupported we fall back to copying
the temporary file over the destination. That copy is not atomic.
*/
package atomicfile
