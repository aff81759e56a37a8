package species

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjk/asistentepa/atomicfile"
)

// Species describes how a plant species is cultivated and sold
type Species struct {
	// unique, compared case-insensitively
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName"`
	Category       string `json:"category"`
	// length of production cycle in days
	CycleDays          int     `json:"cycleDays"`
	RequiredHumidity   float64 `json:"requiredHumidity"`
	RequiredLight      float64 `json:"requiredLight"`
	OptimalTemperature float64 `json:"optimalTemperature"`
	SalePrice          float64 `json:"salePrice"`
}

func (sp *Species) String() string {
	return fmt.Sprintf("Species{%s, %s, %s, cycle: %d, humidity: %s, light: %s, temp: %s, price: %s}",
		sp.ScientificName, sp.CommonName, sp.Category, sp.CycleDays,
		formatFloat(sp.RequiredHumidity), formatFloat(sp.RequiredLight),
		formatFloat(sp.OptimalTemperature), formatFloat(sp.SalePrice))
}

// Store keeps species in a single CSV file.
// Every call re-reads the file, nothing is cached between calls.
//
// Store is not safe for concurrent writers, in this process or another.
// Mutations read the whole file and later replace it, so with two
// writers the last replace wins and the other change is lost.
type Store struct {
	DataDir  string
	FileName string

	// what to do with numbers that don't parse
	Numeric NumericParsing
	// if set, called for every number coerced to 0 in NumericLenient mode
	OnCoerce func(line int, column string, raw string)

	path string
}

const DefaultFileName = "especies.csv"

// OpenStore validates the configuration of s.
// It doesn't touch the file system, the file is created on first use.
func OpenStore(s *Store) error {
	if s.DataDir == "" {
		return fmt.Errorf("data directory is not set. For current directory, use '.'")
	}
	if s.FileName == "" {
		s.FileName = DefaultFileName
	}
	if strings.ContainsAny(s.FileName, `/\`) {
		return fmt.Errorf("file name '%s' cannot contain path separators", s.FileName)
	}
	var err error
	s.path, err = filepath.Abs(filepath.Join(s.DataDir, s.FileName))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for species file: %w", err)
	}
	return nil
}

// Path returns absolute path of the CSV file
func (s *Store) Path() string {
	return s.path
}

// DecodeOptions returns options for decoding with the numeric policy of s
func (s *Store) DecodeOptions() DecodeOptions {
	return DecodeOptions{
		Numeric:  s.Numeric,
		OnCoerce: s.OnCoerce,
	}
}

// EnsureFile creates the directory and the file with just the header row
// if the file doesn't exist or is empty
func (s *Store) EnsureFile() error {
	if s.path == "" {
		return fmt.Errorf("store is not open, call OpenStore()")
	}
	err := os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", s.path, err)
	}
	st, err := os.Stat(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat '%s': %w", s.path, err)
	}
	if st != nil && st.Size() > 0 {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", s.path, err)
	}
	_, err = f.WriteString(Header + "\n")
	err2 := f.Close()
	if err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("failed to write header to '%s': %w", s.path, err)
	}
	return nil
}

// ReadAll returns all species in file order
func (s *Store) ReadAll() ([]Species, error) {
	if err := s.EnsureFile(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", s.path, err)
	}
	defer f.Close()
	res, err := Decode(f, s.DecodeOptions())
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", s.path, err)
	}
	return res, nil
}

func sameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func validate(sp *Species) error {
	if sp == nil || strings.TrimSpace(sp.ScientificName) == "" {
		return ErrMissingKey
	}
	for _, v := range []string{sp.ScientificName, sp.CommonName, sp.Category} {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("%w: '%s'", ErrInvalidField, v)
		}
	}
	return nil
}

// Find returns the first species whose scientific name matches key,
// ignoring case and surrounding whitespace
func (s *Store) Find(key string) (*Species, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if sameKey(all[i].ScientificName, key) {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, key)
}

// endsWithNewline returns true for files whose last byte is '\n'
func endsWithNewline(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return true, nil
	}
	var b [1]byte
	_, err = f.ReadAt(b[:], st.Size()-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return b[0] == '\n', nil
}

func appendLine(path string, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	// a hand-edited file might be missing the final newline
	ok, err := endsWithNewline(f)
	if err != nil {
		f.Close()
		return err
	}
	if !ok {
		line = "\n" + line
	}
	_, err = f.WriteString(line + "\n")
	if err != nil {
		f.Close()
		return err
	}
	err = f.Sync()
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Insert appends sp to the file. Returns ErrDuplicateKey if a species
// with the same scientific name (ignoring case) is already stored.
func (s *Store) Insert(sp *Species) error {
	if err := validate(sp); err != nil {
		return err
	}
	all, err := s.ReadAll()
	if err != nil {
		return err
	}
	for i := range all {
		if sameKey(all[i].ScientificName, sp.ScientificName) {
			return fmt.Errorf("%w: '%s'", ErrDuplicateKey, sp.ScientificName)
		}
	}
	err = appendLine(s.path, EncodeLine(sp))
	if err != nil {
		return fmt.Errorf("failed to append to '%s': %w", s.path, err)
	}
	return nil
}

// Update replaces all fields of the stored species with the same
// scientific name. Returns ErrNotFound if there's no such species.
func (s *Store) Update(sp *Species) error {
	if err := validate(sp); err != nil {
		return err
	}
	all, err := s.ReadAll()
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if sameKey(all[i].ScientificName, sp.ScientificName) {
			all[i] = *sp
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: '%s'", ErrNotFound, sp.ScientificName)
	}
	return s.writeAll(all)
}

// Delete removes every species matching key and returns how many were removed.
// Deleting a species that doesn't exist is not an error and leaves the file as it was.
func (s *Store) Delete(key string) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, nil
	}
	all, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	var keep []Species
	for _, sp := range all {
		if !sameKey(sp.ScientificName, key) {
			keep = append(keep, sp)
		}
	}
	nRemoved := len(all) - len(keep)
	if nRemoved == 0 {
		return 0, nil
	}
	if err = s.writeAll(keep); err != nil {
		return 0, err
	}
	return nRemoved, nil
}

// ReplaceAll overwrites the file with records, in order.
// Records are validated and must have unique keys.
func (s *Store) ReplaceAll(records []Species) error {
	for i := range records {
		if err := validate(&records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		for j := 0; j < i; j++ {
			if sameKey(records[i].ScientificName, records[j].ScientificName) {
				return fmt.Errorf("record %d: %w: '%s'", i, ErrDuplicateKey, records[i].ScientificName)
			}
		}
	}
	return s.writeAll(records)
}

// writeAll writes header and records to a temporary file
// and then replaces the species file with it
func (s *Store) writeAll(records []Species) error {
	if err := s.EnsureFile(); err != nil {
		return err
	}
	f, err := atomicfile.New(s.path)
	if err != nil {
		return fmt.Errorf("failed to create temporary file for '%s': %w", s.path, err)
	}
	defer f.RemoveIfNotClosed()

	_, err = f.WriteString(Header + "\n")
	for i := 0; err == nil && i < len(records); i++ {
		_, err = f.WriteString(EncodeLine(&records[i]) + "\n")
	}
	if err != nil {
		return fmt.Errorf("failed to write temporary file for '%s': %w", s.path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to replace '%s': %w", s.path, err)
	}
	return nil
}
