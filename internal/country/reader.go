package country

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/worldly/internal/errs"
)

// Column headers of the reference table. Matching ignores case and
// surrounding whitespace.
const (
	ColumnShortName   = "SHORT_FORM_NAME"
	ColumnLongName    = "LONG_FORM_NAME"
	ColumnCode2       = "GENC_2A_CODE"
	ColumnCode3       = "GENC_3A_CODE"
	ColumnCapital     = "CAPITAL_INDEPENDENT_STATES"
	ColumnStatus      = "STATUS"
	ColumnMemberOfUN  = "MEMBER_OF_UNITED_NATIONS"
	capitalAliasShort = "CAPITAL"
)

const (
	statusIndependent = "Independent"
	memberOfUNTrue    = "TRUE"
)

var requiredColumns = []string{
	ColumnShortName, ColumnLongName, ColumnCode2, ColumnCode3,
	ColumnCapital, ColumnStatus, ColumnMemberOfUN,
}

// Reader yields records lazily in file order.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader consumes the header row of r. delimiter 0 means comma.
func NewReader(r io.Reader, delimiter rune) (*Reader, error) {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.Newf(errs.ErrParse, "read header", "input has no header row")
		}
		return nil, errs.New(errs.ErrParse, "read header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == capitalAliasShort {
			key = ColumnCapital
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Newf(errs.ErrParse, "read header", "missing columns: %s", strings.Join(missing, ", "))
	}

	return &Reader{csv: cr, columns: columns}, nil
}

// Next returns the next record. It returns io.EOF after the last row.
// A row that cannot be mapped returns an error of kind errs.ErrParse; the
// reader stays usable and the following call moves on to the next row.
func (r *Reader) Next() (Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Record{}, errs.New(errs.ErrParse, "read row", err)
		}
		return Record{}, errs.New(errs.ErrIO, "read input", err)
	}

	line, _ := r.csv.FieldPos(0)
	op := fmt.Sprintf("row at line %d", line)

	get := func(col string) (string, error) {
		idx := r.columns[col]
		if idx >= len(row) {
			return "", errs.Newf(errs.ErrParse, op, "missing column %s", col)
		}
		return strings.TrimSpace(row[idx]), nil
	}

	var rec Record
	fields := []struct {
		col      string
		dst      *string
		required bool
	}{
		{ColumnShortName, &rec.CountryShortFormName, true},
		{ColumnLongName, &rec.CountryLongFormName, false},
		{ColumnCode2, &rec.CountryCode2Letter, true},
		{ColumnCode3, &rec.CountryCode3Letter, false},
		{ColumnCapital, &rec.CapitalCity, true},
	}
	for _, f := range fields {
		v, err := get(f.col)
		if err != nil {
			return Record{}, err
		}
		if f.required && v == "" {
			return Record{}, errs.Newf(errs.ErrParse, op, "empty %s", f.col)
		}
		*f.dst = v
	}

	status, err := get(ColumnStatus)
	if err != nil {
		return Record{}, err
	}
	member, err := get(ColumnMemberOfUN)
	if err != nil {
		return Record{}, err
	}
	rec.Independent = ParseIndependent(status)
	rec.MemberOfUN = ParseMemberOfUN(member)

	return rec, nil
}

// ParseIndependent maps the STATUS column; only "Independent" is true.
func ParseIndependent(s string) bool {
	return s == statusIndependent
}

// ParseMemberOfUN maps the UN membership column; only "TRUE" is true.
func ParseMemberOfUN(s string) bool {
	return s == memberOfUNTrue
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToUpper(strings.TrimSpace(s))
}
