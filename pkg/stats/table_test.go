package stats

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestWriteAndReadCSV(t *testing.T) {
	rows := []*Record{
		{
			Country:       "Japan",
			Year:          2017,
			Population:    Some(126785797),
			PopDensity:    Some(347.778),
			NetMigration:  Some(357000),
			MigrationPerc: Some(357000.0 / 126785797),
			ISO3c:         "JPN",
			ISO2c:         "JP",
			Region:        "East Asia & Pacific",
			IncomeLevel:   "High income",
			LendingType:   "Not classified",
			CapitalCity:   "Tokyo",
			Longitude:     "139.77",
			Latitude:      "35.67",
		},
		{Country: "Sub-Saharan Africa", Year: 2016},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Japan,2017,126785797,347.778,357000,") {
		t.Errorf("integers must be written without fraction: %s", lines[1])
	}
	if lines[2] != "Sub-Saharan Africa,2016,,,,,,,,,,,,," {
		t.Errorf("missing values must be empty cells: %s", lines[2])
	}

	read, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(read))
	}
	for i := range rows {
		if *read[i] != *rows[i] {
			t.Errorf("row %d:\n=== expected ===\n%s\n=== actual ===\n%s", i, spew.Sdump(rows[i]), spew.Sdump(read[i]))
		}
	}
}

func TestReadCSVPandasStyle(t *testing.T) {
	// Column order differs, integers carry a fraction, extra columns exist.
	in := "year,country,population,net_migration,migration_perc,pop_density,region,iso3c,extra\n" +
		"2017.0,Chad,15477751.0,10000.0,0.000646,12.29,Sub-Saharan Africa,TCD,x\n" +
		"2017.0,World,,nan,inf,,Aggregates,,y\n"

	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	chad := rows[0]
	if chad.Country != "Chad" || chad.Year != 2017 || chad.Population != Some(15477751) ||
		chad.NetMigration != Some(10000) || chad.PopDensity != Some(12.29) || chad.ISO3c != "TCD" {
		t.Errorf("unexpected row:\n%s", spew.Sdump(chad))
	}

	world := rows[1]
	if world.Population.Valid || world.NetMigration.Valid || world.MigrationPerc.Valid {
		t.Errorf("empty, nan and inf must read as missing:\n%s", spew.Sdump(world))
	}
	if world.Region != AggregatesRegion {
		t.Errorf("unexpected region %s", world.Region)
	}
}

func TestReadCSVErrors(t *testing.T) {
	for name, in := range map[string]string{
		"missing year column": "country,population\nX,1\n",
		"invalid year":        "country,year\nX,abc\n",
		"invalid number":      "country,year,population\nX,2000,many\n",
		"ragged row":          "country,year\nX,2000,1\n",
		"empty":               "",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(in)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWriteFileReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "migration_population.csv")

	if err := ioutil.WriteFile(file, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	rows := []*Record{{Country: "X", Year: 2000, Population: Some(100)}}
	if err := WriteFile(file, rows); err != nil {
		t.Fatal(err)
	}

	read, err := LoadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != 1 || read[0].Population != Some(100) {
		t.Errorf("unexpected content:\n%s", spew.Sdump(read))
	}

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files were left behind: %d entries", len(entries))
	}
}

func TestWriteFileKeepsTargetOnFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "missing", "migration_population.csv")

	if err := WriteFile(file, []*Record{{Country: "X", Year: 2000}}); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("file must not exist after a failed write: %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	file := filepath.Join(t.TempDir(), "migration_population.xlsx")

	rows := []*Record{
		{Country: "Japan", Year: 2017, Population: Some(126785797), ISO3c: "JPN"},
		{Country: "World", Year: 2017, Region: AggregatesRegion},
	}
	if err := WriteXLSX(file, rows); err != nil {
		t.Fatal(err)
	}

	f := &File{Location: file, Title: "export"}
	if err := f.LoadContent(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	var got [][]string
	if err := ExtractDataFromFile(f, func(r []string) { got = append(got, r) }); err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", spew.Sdump(got))
	}
	if strings.Join(got[0], ",") != strings.Join(Columns, ",") {
		t.Errorf("unexpected header: %v", got[0])
	}
	if got[1][0] != "Japan" || got[1][1] != "2017" || got[1][2] != "126785797" {
		t.Errorf("unexpected row: %v", got[1])
	}
	if got[2][0] != "World" {
		t.Errorf("unexpected row: %v", got[2])
	}
}
