package schema

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/playok/metricd/internal/metric"
)

// Parse reads type definitions in the classic types.db line format:
//
//	type_name  ds_name:KIND:min:max[, ds_name:KIND:min:max]...
//
// "U" means unbounded, "#" starts a comment. Definitions are added to db,
// replacing earlier ones with the same type name.
func Parse(db *DB, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, rest, ok := strings.Cut(line, " ")
		if !ok {
			name, rest, ok = strings.Cut(line, "\t")
		}
		if !ok {
			return fmt.Errorf("line %d: missing data source list", lineno)
		}

		var sources []DataSource
		for _, spec := range strings.Split(rest, ",") {
			ds, err := parseSource(strings.TrimSpace(spec))
			if err != nil {
				return fmt.Errorf("line %d: %w", lineno, err)
			}
			sources = append(sources, ds)
		}
		db.Define(name, sources)
	}
	return sc.Err()
}

func parseSource(spec string) (DataSource, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return DataSource{}, fmt.Errorf("malformed data source %q", spec)
	}
	kind, ok := metric.ParseKind(parts[1])
	if !ok {
		return DataSource{}, fmt.Errorf("unknown data source kind %q", parts[1])
	}
	min, err := parseBound(parts[2])
	if err != nil {
		return DataSource{}, fmt.Errorf("bad min in %q: %w", spec, err)
	}
	max, err := parseBound(parts[3])
	if err != nil {
		return DataSource{}, fmt.Errorf("bad max in %q: %w", spec, err)
	}
	return DataSource{Name: parts[0], Kind: kind, Min: min, Max: max}, nil
}

func parseBound(s string) (float64, error) {
	if s == "U" || s == "u" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// LoadFile parses a types.db file into a fresh database seeded with the
// built-in defaults. File definitions override defaults.
func LoadFile(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema database: %w", err)
	}
	defer f.Close()

	db := Default()
	if err := Parse(db, f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return db, nil
}
