package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tracker/internal/core"
)

// LoadCategories returns the category set for the process. An empty path
// yields the built-in set. Seed files hold one `Name|#color|icon` entry per
// line; blank lines and lines starting with # are skipped.
func LoadCategories(path string) (core.Categories, error) {
	if path == "" {
		return core.DefaultCategories(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer f.Close()

	cats, err := ParseCategories(f)
	if err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	return cats, nil
}

// ParseCategories reads a categories seed. At least one category is required.
func ParseCategories(r io.Reader) (core.Categories, error) {
	var raw []core.Category
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		c := core.Category{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			c.Color = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Icon = strings.TrimSpace(parts[2])
		}
		raw = append(raw, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	cats := core.NewCategories(raw)
	if len(cats) == 0 {
		return nil, fmt.Errorf("no categories defined")
	}
	return cats, nil
}
