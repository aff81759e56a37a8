package species

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kjk/asistentepa/require"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		exp  []string
	}{
		{``, []string{""}},
		{`a,b,c`, []string{"a", "b", "c"}},
		{`"a","b"`, []string{"a", "b"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{`"",""`, []string{"", ""}},
		{`a,,`, []string{"a", "", ""}},
		{`"""",1`, []string{`"`, "1"}},
		// quote toggles anywhere in the field
		{`ab"c,d"e,f`, []string{"abc,de", "f"}},
		// unterminated quote swallows the rest
		{`"abc,def`, []string{"abc,def"}},
		{`"x", 2.5 `, []string{"x", " 2.5 "}},
	}
	for _, tc := range tests {
		got := SplitLine(tc.line)
		require.Equal(t, tc.exp, got, "line: %s", tc.line)
	}
}

func TestEncodeLine(t *testing.T) {
	sp := &Species{
		ScientificName:     "Sedum_morganianum",
		CommonName:         `Cola de "burro", grande`,
		Category:           "",
		CycleDays:          90,
		RequiredHumidity:   50,
		RequiredLight:      6.5,
		OptimalTemperature: -2,
		SalePrice:          25000,
	}
	exp := `"Sedum_morganianum","Cola de ""burro"", grande","",90,50.0,6.5,-2.0,25000.0`
	require.Equal(t, exp, EncodeLine(sp))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		f   float64
		exp string
	}{
		{0, "0.0"},
		{6, "6.0"},
		{22.5, "22.5"},
		{0.1, "0.1"},
		{28000, "28000.0"},
		{1e7, "1.0E7"},
		{12345678.5, "1.23456785E7"},
		{-2.5e9, "-2.5E9"},
		{0.0001, "1.0E-4"},
		{0.00015, "1.5E-4"},
		{1e-10, "1.0E-10"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.exp, formatFloat(tc.f))
	}
}

func TestRoundTrip(t *testing.T) {
	records := []Species{
		{"Ficus_lyrata", "Ficus, hoja de violín", "Interior", 365, 60, 7.5, 24, 45000.5},
		{`Aloe "vera"`, `""`, `a,"b",c`, 0, 0, 0, 0, 0},
		{"x", "", "", -1, 0.001, 1e9, -12.25, 0.3},
	}
	var sb strings.Builder
	sb.WriteString(Header + "\n")
	for i := range records {
		sb.WriteString(EncodeLine(&records[i]) + "\n")
	}
	got, err := Decode(strings.NewReader(sb.String()), DecodeOptions{Numeric: NumericStrict})
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestDecodeSkipsHeaderAndBlankLines(t *testing.T) {
	s := Header + "\r\n" +
		"\r\n" +
		`"A","a","c",1,1.0,2.0,3.0,4.0` + "\r\n" +
		"   \n" +
		`"B","b","c",2,1.0,2.0,3.0,4.0,extra,columns`
	got, err := Decode(strings.NewReader(s), DecodeOptions{Numeric: NumericStrict})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].ScientificName)
	require.Equal(t, "B", got[1].ScientificName)
	require.Equal(t, 4.0, got[1].SalePrice)

	got, err = Decode(strings.NewReader(""), DecodeOptions{Numeric: NumericStrict})
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func TestDecodeMalformedRow(t *testing.T) {
	s := Header + "\n" +
		`"A","a","c",1,1.0,2.0,3.0,4.0` + "\n" +
		`"B","b","c",2,1.0` + "\n"
	_, err := Decode(strings.NewReader(s), DecodeOptions{})
	require.ErrorIs(t, err, ErrMalformedRow)
	require.Contains(t, err.Error(), "line 3")
}

func TestDecodeNumericCoercion(t *testing.T) {
	s := Header + "\n" + `"A","a","c",ninety,abc,,7,1e3` + "\n"
	got, err := Decode(strings.NewReader(s), DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	exp := Species{ScientificName: "A", CommonName: "a", Category: "c", OptimalTemperature: 7, SalePrice: 1000}
	require.Equal(t, exp, got[0])

	_, err = Decode(strings.NewReader(s), DecodeOptions{Numeric: NumericStrict})
	require.ErrorIs(t, err, ErrInvalidNumber)
	require.Contains(t, err.Error(), "cycleDays")

	var coerced []string
	d := &decoder{
		onCoerce: func(line int, column string, raw string) {
			coerced = append(coerced, column+"="+raw)
		},
	}
	_, err = d.decode(strings.NewReader(s))
	require.NoError(t, err)
	require.Equal(t, []string{"cycleDays=ninety", "requiredHumidity=abc", "requiredLight="}, coerced)
}

func TestDecodeCycleOutOfIntRange(t *testing.T) {
	s := Header + "\n" +
		`"A","a","c",3000000000,1.0,2.0,3.0,4.0` + "\n" +
		`"B","b","c",2147483647,1.0,2.0,3.0,4.0` + "\n"
	var coerced []string
	opts := DecodeOptions{
		OnCoerce: func(line int, column string, raw string) {
			coerced = append(coerced, fmt.Sprintf("%d:%s=%s", line, column, raw))
		},
	}
	got, err := Decode(strings.NewReader(s), opts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 0, got[0].CycleDays)
	require.Equal(t, 2147483647, got[1].CycleDays)
	require.Equal(t, []string{"2:cycleDays=3000000000"}, coerced)

	_, err = Decode(strings.NewReader(s), DecodeOptions{Numeric: NumericStrict})
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestDecodeLongLine(t *testing.T) {
	long := strings.Repeat("x", 5<<20)
	s := Header + "\n" + `"Big","` + long + `","c",1,1.0,2.0,3.0,4.0` + "\n" +
		`"Small","s","c",1,1.0,2.0,3.0,4.0`
	got, err := Decode(strings.NewReader(s), DecodeOptions{Numeric: NumericStrict})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, len(long), len(got[0].CommonName))
	require.Equal(t, "Small", got[1].ScientificName)
}

func TestNumericParsingString(t *testing.T) {
	require.Equal(t, "lenient", NumericLenient.String())
	require.Equal(t, "strict", NumericStrict.String())
	require.Equal(t, "NumericParsing(7)", NumericParsing(7).String())
}
