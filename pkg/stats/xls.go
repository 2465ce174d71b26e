package stats

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"
)

func ExtractDataFromFile(f *File, handler func(r []string)) error {
	switch f.Ext() {
	case ".xlsx":
		return ExtractDataFromXLSX(f, handler)
	case ".xls":
		return ExtractDataFromXLS(f, handler)
	}
	return f.checkExcel()
}

func ExtractDataFromXLS(f *File, handler func(r []string)) error {
	fmt.Printf("Loading XLS data: %s\n", f.Location)

	rawData, err := f.content()
	if err != nil {
		return err
	}
	reader := bytes.NewReader(rawData)
	wb, err := xls.OpenReader(reader, "utf-8")
	if err != nil {
		return fmt.Errorf("could not read XLS file '%s' (%s): %w", f.Title, f.Location, err)
	}

	if sheet := wb.GetSheet(0); sheet != nil {
		fmt.Printf("Sheet name : %s\n", sheet.Name)
		fmt.Printf("Sheet rows : %d\n", sheet.MaxRow)

		for i := 0; i <= int(sheet.MaxRow); i++ {
			row := sheet.Row(i)
			if row != nil {
				var cols []string
				for j := 0; j <= row.LastCol(); j++ {
					cols = append(cols, row.Col(j))
				}
				handler(cols)
			}
		}
	}
	return nil
}

func ExtractDataFromXLSX(f *File, handler func(r []string)) error {
	fmt.Printf("Loading XLSX data: %s\n", f.Location)

	rawData, err := f.content()
	if err != nil {
		return err
	}
	reader := bytes.NewReader(rawData)
	wb, err := xlsx.OpenReader(reader)
	if err != nil {
		return fmt.Errorf("could not read XLSX file '%s' (%s): %w", f.Title, f.Location, err)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("XLSX file '%s' has no sheets", f.Location)
	}
	defaultSheet := sheets[0]

	rows, err := wb.GetRows(defaultSheet)
	if err != nil {
		return fmt.Errorf("could not get rows for default sheet '%s': %w", defaultSheet, err)
	}

	fmt.Printf("Sheet name : %s\n", defaultSheet)
	fmt.Printf("Sheet rows : %d\n", len(rows))

	for _, r := range rows {
		handler(r)
	}
	return nil
}

// Workbook reads indicators from World Bank bulk downloads, one file per
// indicator. The first sheet holds a header row
//
//	Country Name | Country Code | Indicator Name | Indicator Code | 1960 | 1961 | ...
//
// followed by one row per country or aggregate.
type Workbook struct {
	Files  map[Indicator]*File
	Client *http.Client
}

func NewWorkbook(locations map[Indicator]string) *Workbook {
	w := &Workbook{Files: make(map[Indicator]*File), Client: http.DefaultClient}
	for id, loc := range locations {
		w.Files[id] = &File{Location: loc, Title: string(id)}
	}
	return w
}

// Name lists the workbook locations, sorted by indicator.
func (w *Workbook) Name() string {
	var ids []string
	for id := range w.Files {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+"="+w.Files[Indicator(id)].Location)
	}
	return "workbooks:" + strings.Join(parts, ",")
}

func (w *Workbook) FetchIndicator(ctx context.Context, id Indicator, start, end int) (*Series, error) {
	f, ok := w.Files[id]
	if !ok {
		return nil, fmt.Errorf("no workbook configured for indicator %s", id)
	}
	if err := f.checkExcel(); err != nil {
		return nil, err
	}
	if f.ContentBase64 == "" {
		if err := f.LoadContent(ctx, w.Client); err != nil {
			return nil, err
		}
	}

	s := &Series{Indicator: id}

	type yearColumn struct{ col, year int }
	var years []yearColumn
	var parseErr error

	err := ExtractDataFromFile(f, func(row []string) {
		if parseErr != nil || len(row) < 4 {
			return
		}

		if years == nil {
			if mustTrim(row[0]) != "Country Name" {
				return
			}
			years = []yearColumn{}
			for i := 4; i < len(row); i++ {
				y, err := parseInt(row[i])
				if err != nil {
					continue
				}
				years = append(years, yearColumn{col: i, year: y})
			}
			return
		}

		name := mustTrim(row[0])
		if name == "" {
			return
		}
		if code := mustTrim(row[3]); code != "" && code != string(id) {
			parseErr = fmt.Errorf("workbook '%s' holds indicator %s, expected %s", f.Location, code, id)
			return
		}

		for _, yc := range years {
			i, y := yc.col, yc.year
			if y < start || y > end {
				continue
			}
			v := Null
			if i < len(row) && mustTrim(row[i]) != "" {
				n, err := strconv.ParseFloat(mustTrim(row[i]), 64)
				if err != nil {
					parseErr = fmt.Errorf("workbook '%s': invalid value '%s' for %s %d", f.Location, row[i], name, y)
					return
				}
				v = Some(n)
			}
			s.Observations = append(s.Observations, Observation{
				Country: name,
				ISO3:    mustTrim(row[1]),
				Year:    y,
				Value:   v,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if years == nil {
		return nil, fmt.Errorf("workbook '%s' has no 'Country Name' header row", f.Location)
	}

	return s, nil
}

func mustTrim(v string) string {
	return strings.Trim(v, " \n\t\r")
}

// parseInt accepts integers written as floats ("2017.0"), as spreadsheets
// and pandas tend to do.
func parseInt(v string) (int, error) {
	v = mustTrim(v)
	if i, err := strconv.Atoi(v); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("'%s' is not an integer", v)
	}
	return int(f), nil
}
