package migrate

import "testing"

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations should validate: %v", err)
	}
}

func TestValidateDirRejectsMissingDir(t *testing.T) {
	if err := ValidateDir("does-not-exist"); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
