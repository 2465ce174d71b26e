package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
)

// Columns of the merged table file, in file order.
var Columns = []string{
	"country", "year", "population", "pop_density", "net_migration", "migration_perc",
	"iso3c", "iso2c", "region", "adminregion", "incomeLevel", "lendingType",
	"capitalCity", "longitude", "latitude",
}

func formatNumber(n Number) string {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func parseNumber(v string) (Number, error) {
	v = mustTrim(v)
	if v == "" || strings.EqualFold(v, "nan") {
		return Null, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Null, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null, nil
	}
	return Some(f), nil
}

func (r *Record) fields() []string {
	return []string{
		r.Country, strconv.Itoa(r.Year),
		formatNumber(r.Population), formatNumber(r.PopDensity),
		formatNumber(r.NetMigration), formatNumber(r.MigrationPerc),
		r.ISO3c, r.ISO2c, r.Region, r.AdminRegion, r.IncomeLevel, r.LendingType,
		r.CapitalCity, r.Longitude, r.Latitude,
	}
}

// WriteCSV writes the table with a header row and no index column.
func WriteCSV(w io.Writer, rows []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. Columns are located by header
// name; unknown columns are ignored and only country and year are required.
func ReadCSV(r io.Reader) ([]*Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	idx := make(map[string]int)
	for i, h := range header {
		idx[mustTrim(h)] = i
	}
	for _, c := range []string{"country", "year"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column '%s'", c)
		}
	}

	get := func(row []string, col string) string {
		if i, ok := idx[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var rows []*Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := &Record{
			Country:     get(row, "country"),
			ISO3c:       get(row, "iso3c"),
			ISO2c:       get(row, "iso2c"),
			Region:      get(row, "region"),
			AdminRegion: get(row, "adminregion"),
			IncomeLevel: get(row, "incomeLevel"),
			LendingType: get(row, "lendingType"),
			CapitalCity: get(row, "capitalCity"),
			Longitude:   get(row, "longitude"),
			Latitude:    get(row, "latitude"),
		}

		if rec.Year, err = parseInt(get(row, "year")); err != nil {
			return nil, fmt.Errorf("line %d: invalid year '%s'", line, get(row, "year"))
		}

		for _, m := range []Metric{Population, PopDensity, NetMigration, MigrationPerc} {
			n, err := parseNumber(get(row, string(m)))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s '%s'", line, m, get(row, string(m)))
			}
			setMetric(rec, m, n)
		}

		rows = append(rows, rec)
	}

	return rows, nil
}

// LoadFile reads the merged table from disk.
func LoadFile(file string) ([]*Record, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return rows, nil
}

// WriteFile writes the table next to file and renames it into place, so a
// failed write never replaces the last good file.
func WriteFile(file string, rows []*Record) error {
	tmp, err := ioutil.TempFile(filepath.Dir(file), ".migration-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}

func cellNumber(n Number) interface{} {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return nil
	}
	return n.Value
}

// WriteXLSX exports the table as a workbook with a single "Data" sheet.
func WriteXLSX(file string, rows []*Record) error {
	const sheet = "Data"

	wb := xlsx.NewFile()
	wb.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := xlsx.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Country, r.Year,
			cellNumber(r.Population), cellNumber(r.PopDensity),
			cellNumber(r.NetMigration), cellNumber(r.MigrationPerc),
			r.ISO3c, r.ISO2c, r.Region, r.AdminRegion, r.IncomeLevel, r.LendingType,
			r.CapitalCity, r.Longitude, r.Latitude,
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	tmp := filepath.Join(filepath.Dir(file), ".tmp-"+filepath.Base(file))
	if err := wb.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, file)
}
