// Package testsupport holds helpers shared by package tests: JSON fixtures
// under testdata/ and an in-process fake of the care-team backend.
package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestdataDir is where fixtures live, relative to the package under test.
const TestdataDir = "testdata"

// Fixture returns the raw bytes of testdata/name.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(TestdataDir, name))
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return data
}

// FixtureJSON decodes testdata/name into a T. Unknown fields fail the test
// so fixtures cannot drift silently from the types they describe.
func FixtureJSON[T any](t testing.TB, name string) T {
	t.Helper()

	var out T
	if err := DecodeStrict(Fixture(t, name), &out); err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return out
}

// DecodeStrict unmarshals data into dest, rejecting unknown fields.
func DecodeStrict(data []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
