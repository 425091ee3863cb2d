// Package archive packages converted files for download.
package archive

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/richinex/staxchange/model"
)

// Filename is the attachment name used for exported archives.
const Filename = "converted.zip"

// ContentType is the MIME type of the archive.
const ContentType = "application/zip"

// EntryName returns the archive path for a file path: leading slashes are
// removed and a path left empty becomes file.txt.
func EntryName(path string) string {
	name := strings.TrimLeft(path, "/")
	if name == "" {
		return "file.txt"
	}
	return name
}

// WriteZip writes files to w as a deflated zip archive. When two files map
// to the same entry name the later content wins and the entry keeps the
// position of the first.
func WriteZip(w io.Writer, files []model.SourceFile) error {
	var order []string
	contents := make(map[string]string, len(files))
	for _, f := range files {
		name := EntryName(f.Path)
		if _, seen := contents[name]; !seen {
			order = append(order, name)
		}
		contents[name] = f.Content
	}

	zw := zip.NewWriter(w)
	modified := time.Now()
	for _, name := range order {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := io.WriteString(fw, contents[name]); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}
