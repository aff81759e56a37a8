package species

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var columns = []string{
	"scientificName", "commonName", "category", "cycleDays",
	"requiredHumidity", "requiredLight", "optimalTemperature", "salePrice",
}

// Header is the first row of every species file
var Header = strings.Join(columns, ",")

// NumericParsing decides what happens to numeric columns that don't parse
type NumericParsing int

const (
	// NumericLenient stores 0 for a number that doesn't parse.
	// Older files were written by a tool that read them this way.
	NumericLenient NumericParsing = iota
	// NumericStrict fails the read with ErrInvalidNumber
	NumericStrict
)

func (p NumericParsing) String() string {
	switch p {
	case NumericLenient:
		return "lenient"
	case NumericStrict:
		return "strict"
	}
	return fmt.Sprintf("NumericParsing(%d)", int(p))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatFloat always writes a decimal point so that 25000 is "25000.0".
// Values outside [1e-3, 1e7) use scientific notation like "1.0E7" or "1.5E-4".
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e7 || abs < 1e-3) {
		s := strconv.FormatFloat(f, 'E', -1, 64)
		mant, exp, _ := strings.Cut(s, "E")
		if !strings.ContainsRune(mant, '.') {
			mant += ".0"
		}
		exp = strings.TrimPrefix(exp, "+")
		neg := strings.HasPrefix(exp, "-")
		exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
		if neg {
			exp = "-" + exp
		}
		return mant + "E" + exp
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// EncodeLine returns a CSV row for sp, without the trailing newline.
// String fields are always quoted, numbers never are.
func EncodeLine(sp *Species) string {
	var sb strings.Builder
	sb.WriteString(quote(sp.ScientificName))
	sb.WriteByte(',')
	sb.WriteString(quote(sp.CommonName))
	sb.WriteByte(',')
	sb.WriteString(quote(sp.Category))
	sb.WriteByte(',')
	sb.WriteString(strconv.Itoa(sp.CycleDays))
	for _, f := range []float64{sp.RequiredHumidity, sp.RequiredLight, sp.OptimalTemperature, sp.SalePrice} {
		sb.WriteByte(',')
		sb.WriteString(formatFloat(f))
	}
	return sb.String()
}

// SplitLine splits a CSV row into fields.
// A double quote switches quoted mode on and off. Inside quotes
// a doubled quote is a literal quote and a comma is data.
func SplitLine(line string) []string {
	var res []string
	var sb strings.Builder
	inQuotes := false
	n := len(line)
	for i := 0; i < n; i++ {
		c := line[i]
		if inQuotes {
			if c != '"' {
				sb.WriteByte(c)
				continue
			}
			if i+1 < n && line[i+1] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case ',':
			res = append(res, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	return append(res, sb.String())
}

type decoder struct {
	numeric  NumericParsing
	onCoerce func(line int, column string, raw string)
}

func (d *decoder) parseInt(lineNo int, col int, s string) (int, error) {
	// cycle lengths are 32-bit, bigger values are invalid like any other garbage
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err == nil {
		return int(v), nil
	}
	return 0, d.invalidNumber(lineNo, col, s)
}

func (d *decoder) parseFloat(lineNo int, col int, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err == nil {
		return v, nil
	}
	return 0, d.invalidNumber(lineNo, col, s)
}

// invalidNumber returns nil in lenient mode, the caller then uses 0
func (d *decoder) invalidNumber(lineNo int, col int, s string) error {
	if d.numeric == NumericStrict {
		return fmt.Errorf("line %d, column %s: %w: '%s'", lineNo, columns[col], ErrInvalidNumber, s)
	}
	if d.onCoerce != nil {
		d.onCoerce(lineNo, columns[col], s)
	}
	return nil
}

func (d *decoder) fromColumns(lineNo int, cols []string) (Species, error) {
	var sp Species
	if len(cols) < len(columns) {
		return sp, fmt.Errorf("line %d: %w: expected %d columns, got %d", lineNo, ErrMalformedRow, len(columns), len(cols))
	}
	sp.ScientificName = cols[0]
	sp.CommonName = cols[1]
	sp.Category = cols[2]

	var err error
	if sp.CycleDays, err = d.parseInt(lineNo, 3, cols[3]); err != nil {
		return sp, err
	}
	floats := []*float64{&sp.RequiredHumidity, &sp.RequiredLight, &sp.OptimalTemperature, &sp.SalePrice}
	for i, dst := range floats {
		col := 4 + i
		if *dst, err = d.parseFloat(lineNo, col, cols[col]); err != nil {
			return sp, err
		}
	}
	return sp, nil
}

// readLine returns the next line without the line ending.
// Lines have no length limit, a single record can be as big as it wants.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

func (d *decoder) decode(r io.Reader) ([]Species, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var res []Species
	lineNo := 0
	for {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading species: %w", err)
		}
		lineNo++
		// first line is the header
		if lineNo == 1 {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		sp, err := d.fromColumns(lineNo, SplitLine(line))
		if err != nil {
			return nil, err
		}
		res = append(res, sp)
	}
	return res, nil
}

// DecodeOptions configures Decode
type DecodeOptions struct {
	Numeric NumericParsing
	// if set, called for every number coerced to 0 in NumericLenient mode
	OnCoerce func(line int, column string, raw string)
}

// Decode reads a species file (header row first) from r
func Decode(r io.Reader, opts DecodeOptions) ([]Species, error) {
	d := &decoder{numeric: opts.Numeric, onCoerce: opts.OnCoerce}
	return d.decode(r)
}
