package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSettlementMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_settlement_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no settlement migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS settlements",
		"CREATE TABLE IF NOT EXISTS settlement_items",
		"CREATE TABLE IF NOT EXISTS settlement_adjustments",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_settlements_number",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_settlements_seller_period_current",
		"CHECK (period_end > period_start)",
		"DROP TABLE IF EXISTS settlements",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
