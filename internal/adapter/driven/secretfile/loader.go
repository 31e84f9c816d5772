// Package secretfile loads the pipe-delimited list of secrets to monitor.
//
// Format, one entry per line:
//
//	type|value|note
//
// The note is optional, blank lines and lines starting with '#' are
// skipped, and surrounding whitespace is trimmed from every field.
package secretfile

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
)

// minValueLength rejects values too short to be searched for meaningfully;
// GitHub search on a tiny fragment would drown the scan in false hits.
const minValueLength = 4

// List is the outcome of loading a secrets file: the usable entries plus a
// count of lines that were rejected.
type List struct {
	Items   []model.SecretItem
	Skipped int
}

// CountByType groups the loaded entries by secret type for summary logging.
func (l List) CountByType() map[model.SecretType]int {
	counts := make(map[model.SecretType]int, len(l.Items))
	for _, item := range l.Items {
		counts[item.Type]++
	}
	return counts
}

// Load reads the secrets file at path. Malformed lines are logged with
// their line number and skipped; loading only fails when the file cannot
// be read or no usable entry remains.
func Load(path string) (List, error) {
	f, err := os.Open(path)
	if err != nil {
		return List{}, fmt.Errorf("opening secrets file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var list List
	sawEntry := false

	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sawEntry = true

		item, err := parseLine(line)
		if err != nil {
			slog.Warn("skipping malformed secrets line",
				"file", path,
				"line", lineNum,
				"error", err)
			list.Skipped++
			continue
		}
		list.Items = append(list.Items, item)
	}
	if err := scanner.Err(); err != nil {
		return List{}, fmt.Errorf("reading secrets file: %w", err)
	}

	if len(list.Items) == 0 {
		if !sawEntry {
			return List{}, fmt.Errorf("secrets file %s contains no entries", path)
		}
		return List{}, fmt.Errorf("secrets file %s has no valid entries (%d rejected)", path, list.Skipped)
	}
	return list, nil
}

func parseLine(line string) (model.SecretItem, error) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) < 2 {
		return model.SecretItem{}, fmt.Errorf("expected type|value|note, got %d field(s)", len(parts))
	}

	typeStr := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	note := ""
	if len(parts) == 3 {
		note = strings.TrimSpace(parts[2])
	}

	if len(value) < minValueLength {
		return model.SecretItem{}, fmt.Errorf("value %q is shorter than %d characters", model.MaskValue(value), minValueLength)
	}

	secretType := model.SecretType(typeStr)
	if !model.KnownSecretType(typeStr) {
		slog.Warn("unknown secret type, treating as custom", "type", typeStr)
		secretType = model.SecretTypeCustom
	}

	return model.SecretItem{Type: secretType, Value: value, Note: note}, nil
}
