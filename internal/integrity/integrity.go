// Package integrity implements beefcake's tamper-evidence layer: content
// hashing an export with SHA-256 under a fixed-size buffer, writing the
// hash alongside the export as a receipt, and verifying a receipt against
// its sibling data file later.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/beefcake-data/beefcake/internal/model"
)

const (
	// ReceiptVersion is the only IntegrityReceipt schema version this
	// package writes or reads.
	ReceiptVersion uint32 = 1
	// hashBufSize is the streaming read buffer used while hashing, chosen
	// to bound hashing to constant memory regardless of file size.
	hashBufSize = 8 * 1024
)

// receiptSuffix is appended to an export's filename to derive its receipt
// path: <export_path>.receipt.json.
const receiptSuffix = ".receipt.json"

// ReceiptPath returns the sibling receipt path for an export file.
func ReceiptPath(exportPath string) string {
	return exportPath + receiptSuffix
}

// Producer identifies the running application for a receipt's producer
// block; callers in cmd/ supply the version string baked in at build time.
type Producer struct {
	AppVersion string
}

// hashFile streams path through SHA-256 in hashBufSize chunks, returning
// the lowercase hex digest and the file size observed while reading.
func hashFile(path string) (digest string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, model.Context(model.ErrIo, "integrity.hash_file.open", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBufSize)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", 0, model.Context(model.ErrIo, "integrity.hash_file.read", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// CreateReceipt hashes the file at dataPath and builds an IntegrityReceipt
// for it. schema and rowCount are attached when the caller has a
// materialised DataFrame on hand (export flows always do), and the column
// count is taken from schema; pass an empty schema and a zero rowCount for
// a bare file-level receipt.
func CreateReceipt(dataPath string, format string, schema model.Schema, rowCount int64, producer Producer) (model.IntegrityReceipt, error) {
	digest, size, err := hashFile(dataPath)
	if err != nil {
		return model.IntegrityReceipt{}, err
	}

	entries := make([]model.ColumnSchemaEntry, len(schema.Fields))
	for i, f := range schema.Fields {
		entries[i] = model.ColumnSchemaEntry{Name: f.Name, Dtype: f.DType.String()}
	}

	return model.IntegrityReceipt{
		ReceiptVersion: ReceiptVersion,
		CreatedUTC:     time.Now().UTC(),
		Producer: model.Producer{
			AppName:    "beefcake",
			AppVersion: producer.AppVersion,
			Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		},
		Export: model.ExportInfo{
			Filename: filepath.Base(dataPath),
			Format:   format,
			FileSize: size,
			RowCount: rowCount,
			ColCount: len(schema.Fields),
			Schema:   entries,
		},
		Integrity: model.Integrity{
			Algorithm: "SHA-256",
			Hash:      digest,
		},
	}, nil
}

// SaveReceipt writes receipt to exportPath's receipt sibling, via a
// write-to-temp-then-rename so a crash mid-write never leaves a partial
// receipt in place (mirrors the registry's atomic snapshot replace).
func SaveReceipt(receipt model.IntegrityReceipt, exportPath string) error {
	path := ReceiptPath(exportPath)
	raw, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return model.Context(model.ErrReceipt, "integrity.save_receipt.marshal", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return model.Context(model.ErrReceipt, "integrity.save_receipt.write_temp", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return model.Context(model.ErrReceipt, "integrity.save_receipt.rename", err)
	}
	return nil
}

// LoadReceipt reads and parses the receipt file at path.
func LoadReceipt(path string) (model.IntegrityReceipt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.IntegrityReceipt{}, model.Context(model.ErrReceipt, "integrity.load_receipt.read", err)
	}
	var r model.IntegrityReceipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.IntegrityReceipt{}, model.Context(model.ErrReceipt, "integrity.load_receipt.parse", err)
	}
	return r, nil
}

// VerifyReceipt locates receiptPath's sibling data file (receipt.export.filename,
// resolved relative to the receipt's own directory), rehashes it, and
// compares against the recorded hash in constant time. Failures are
// reported in the result, never returned as an error.
func VerifyReceipt(receiptPath string) model.VerificationResult {
	receipt, err := LoadReceipt(receiptPath)
	if err != nil {
		return model.VerificationResult{
			Passed:  false,
			Message: "receipt parse error: " + err.Error(),
		}
	}

	dataPath := filepath.Join(filepath.Dir(receiptPath), receipt.Export.Filename)
	if _, err := os.Stat(dataPath); err != nil {
		return model.VerificationResult{
			Passed:   false,
			Expected: receipt.Integrity.Hash,
			Message:  "data file missing: " + dataPath,
			Receipt:  &receipt,
		}
	}

	actual, _, err := hashFile(dataPath)
	if err != nil {
		return model.VerificationResult{
			Passed:   false,
			Expected: receipt.Integrity.Hash,
			Message:  "hash computation failed: " + err.Error(),
			Receipt:  &receipt,
		}
	}

	if subtle.ConstantTimeCompare([]byte(actual), []byte(receipt.Integrity.Hash)) != 1 {
		return model.VerificationResult{
			Passed:   false,
			Expected: receipt.Integrity.Hash,
			Actual:   actual,
			Message:  "hash mismatch",
			Receipt:  &receipt,
		}
	}

	return model.VerificationResult{
		Passed:   true,
		Expected: receipt.Integrity.Hash,
		Actual:   actual,
		Message:  "ok",
		Receipt:  &receipt,
	}
}
