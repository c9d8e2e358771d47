package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBalanceMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_credit_balances.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no credit balances migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS credit_balances",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"CHECK (credits >= 0)",
		"DROP TABLE IF EXISTS credit_balances",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLedgerMigrationEnforcesUniqueExternalRef(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_credit_ledger_entries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no ledger migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS credit_ledger_entries",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_external_ref",
		"WHERE external_ref IS NOT NULL",
		"DROP TABLE IF EXISTS credit_ledger_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
