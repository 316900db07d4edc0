package testutil

import (
	"fmt"
	"os"
	"testing"
)

const testEnv = "test"

// RequireTestEnvironment fails the test unless GO_ENV=test, so a stray run
// never migrates or truncates a real database.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != testEnv {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test (current GO_ENV=%q)", env)
	}
}

// RunGuarded is a TestMain body that refuses to run the package's tests
// outside GO_ENV=test.
func RunGuarded(m *testing.M) int {
	if env := os.Getenv("GO_ENV"); env != testEnv {
		fmt.Fprintf(os.Stderr, "SAFETY CHECK FAILED: tests must run with GO_ENV=test (current GO_ENV=%q)\n"+
			"  run: GO_ENV=test go test ./...\n", env)
		return 1
	}
	return m.Run()
}
