package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// WriteReportFile writes r to path in the given format ("json", "yaml" or
// "html"). The write holds an advisory lock on path+".lock" so processes
// sharing a report path never interleave their output.
func WriteReportFile(path, format string, r Report) error {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", "json":
		if err := PrintJSONReport(&buf, r); err != nil {
			return err
		}
	case "yaml", "yml":
		if err := PrintYAMLReport(&buf, r); err != nil {
			return err
		}
	case "html":
		if err := GenerateHTMLReport(&buf, r); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
