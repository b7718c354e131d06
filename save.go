package chesspairs

import (
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// datasetFile is the gob layout of a Dataset. Skipped errors are kept as messages.
type datasetFile struct {
	Pairs   []Pair
	Games   int
	Plies   []int
	Elapsed time.Duration
	Skipped []string
}

// formatOf reports whether path names a JSON file and whether it is zstd compressed.
func formatOf(path string) (isJSON, compressed bool) {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".zst") {
		compressed = true
		name = strings.TrimSuffix(name, ".zst")
	}
	return filepath.Ext(name) == ".json", compressed
}

// Save writes ds to filename. A .json file holds the pairs as nested arrays,
// anything else is a gob of the whole dataset. A trailing .zst compresses the file.
func Save(ds *Dataset, filename string) (err error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	isJSON, compressed := formatOf(filename)
	var w io.Writer = f
	if compressed {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return errors.WithStack(zerr)
		}
		defer func() {
			if cerr := zw.Close(); cerr != nil {
				err = multierror.Append(err, cerr).ErrorOrNil()
			}
		}()
		w = zw
	}

	if isJSON {
		pairs := ds.Pairs
		if pairs == nil {
			pairs = []Pair{}
		}
		return errors.Wrapf(json.NewEncoder(w).Encode(pairs), "encode %s", filename)
	}

	file := datasetFile{
		Pairs:   ds.Pairs,
		Games:   ds.Games,
		Plies:   ds.Plies,
		Elapsed: ds.Elapsed,
	}
	if ds.Skipped != nil {
		for _, e := range ds.Skipped.Errors {
			file.Skipped = append(file.Skipped, e.Error())
		}
	}
	return errors.Wrapf(gob.NewEncoder(w).Encode(file), "encode %s", filename)
}

// Load reads a dataset written by Save. JSON files only carry pairs, so Games and
// Plies stay empty for them.
func Load(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	isJSON, compressed := formatOf(filename)
	var r io.Reader = f
	if compressed {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer zr.Close()
		r = zr
	}

	if isJSON {
		var pairs []Pair
		if err := json.NewDecoder(r).Decode(&pairs); err != nil {
			return nil, errors.Wrapf(err, "decode %s", filename)
		}
		return &Dataset{Pairs: pairs}, nil
	}

	var file datasetFile
	if err := gob.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "decode %s", filename)
	}
	ds := &Dataset{
		Pairs:   file.Pairs,
		Games:   file.Games,
		Plies:   file.Plies,
		Elapsed: file.Elapsed,
	}
	for _, msg := range file.Skipped {
		ds.Skipped = multierror.Append(ds.Skipped, errors.New(msg))
	}
	return ds, nil
}
