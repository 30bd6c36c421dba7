package integrity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beefcake-data/beefcake/internal/model"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCreateAndVerifyReceiptRoundTrips(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeTempFile(t, dir, "export.csv", "a,b\n1,2\n3,4\n")

	schema := model.Schema{Fields: []model.Field{
		{Name: "a", DType: model.DTypeInt64},
		{Name: "b", DType: model.DTypeInt64},
	}}
	receipt, err := CreateReceipt(dataPath, "csv", schema, 2, Producer{AppVersion: "v1.0.5"})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if len(receipt.Integrity.Hash) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(receipt.Integrity.Hash))
	}
	if receipt.Integrity.Algorithm != "SHA-256" {
		t.Fatalf("expected algorithm SHA-256, got %q", receipt.Integrity.Algorithm)
	}

	if err := SaveReceipt(receipt, dataPath); err != nil {
		t.Fatalf("SaveReceipt: %v", err)
	}

	result := VerifyReceipt(ReceiptPath(dataPath))
	if !result.Passed {
		t.Fatalf("expected verification to pass, got %+v", result)
	}
	if result.Expected != result.Actual {
		t.Fatalf("expected hash %q to equal actual %q", result.Expected, result.Actual)
	}
}

func TestVerifyReceiptDetectsTamper(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeTempFile(t, dir, "export.csv", "a,b\n1,2\n3,4\n")

	receipt, err := CreateReceipt(dataPath, "csv", model.Schema{}, 2, Producer{AppVersion: "v1.0.5"})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if err := SaveReceipt(receipt, dataPath); err != nil {
		t.Fatalf("SaveReceipt: %v", err)
	}

	if err := os.WriteFile(dataPath, []byte("a,b\n9,9\n3,4\n"), 0o644); err != nil {
		t.Fatalf("tamper WriteFile: %v", err)
	}

	result := VerifyReceipt(ReceiptPath(dataPath))
	if result.Passed {
		t.Fatal("expected verification to fail after tampering")
	}
	if result.Message != "hash mismatch" {
		t.Fatalf("expected \"hash mismatch\" message, got %q", result.Message)
	}
	if result.Expected == result.Actual {
		t.Fatal("expected mismatched hashes to differ")
	}
}

func TestVerifyReceiptDetectsMissingDataFile(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeTempFile(t, dir, "export.csv", "a,b\n1,2\n")

	receipt, err := CreateReceipt(dataPath, "csv", model.Schema{}, 1, Producer{AppVersion: "v1.0.5"})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if err := SaveReceipt(receipt, dataPath); err != nil {
		t.Fatalf("SaveReceipt: %v", err)
	}
	if err := os.Remove(dataPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	result := VerifyReceipt(ReceiptPath(dataPath))
	if result.Passed {
		t.Fatal("expected verification to fail when the data file is gone")
	}
	if result.Message[:len("data file missing")] != "data file missing" {
		t.Fatalf("expected a \"data file missing\" message, got %q", result.Message)
	}
}

func TestVerifyReceiptDetectsParseError(t *testing.T) {
	dir := t.TempDir()
	badReceipt := writeTempFile(t, dir, "export.csv.receipt.json", "{not valid json")

	result := VerifyReceipt(badReceipt)
	if result.Passed {
		t.Fatal("expected verification to fail on unparsable receipt JSON")
	}
	if len(result.Message) < len("receipt parse error") || result.Message[:len("receipt parse error")] != "receipt parse error" {
		t.Fatalf("expected a \"receipt parse error\" message, got %q", result.Message)
	}
}
