package stats

import "testing"

func TestParseMetric(t *testing.T) {
	for in, expected := range map[string]Metric{
		"":               "",
		"net_migration":  NetMigration,
		"migration_perc": MigrationPerc,
		"pop_density":    PopDensity,
	} {
		got, err := ParseMetric(in)
		if err != nil || got != expected {
			t.Errorf("ParseMetric(%q) = %q, %v; expected %q", in, got, err, expected)
		}
	}
	for _, in := range []string{"population", "gdp", "Net_Migration"} {
		if _, err := ParseMetric(in); err == nil {
			t.Errorf("ParseMetric(%q) should fail", in)
		}
	}
}
