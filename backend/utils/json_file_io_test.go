// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package utils

import (
	"os"
	"path/filepath"
	"testing"
)

type testMetadata struct {
	Version  int
	Elements uint64
}

func TestReadJsonFile_CanReadJsonData(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(file, []byte(`{"Version":1,"Elements":30}`), 0600); err != nil {
		t.Fatal(err)
	}

	data, err := ReadJsonFile[testMetadata](file)
	if err != nil {
		t.Fatal(err)
	}
	if want := (testMetadata{1, 30}); data != want {
		t.Errorf("unexpected content, wanted %v, got %v", want, data)
	}
}

func TestReadJsonFile_MissingFileIsReported(t *testing.T) {
	if _, err := ReadJsonFile[testMetadata](filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadJsonFile_DetectsMarshalingError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(file, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJsonFile[chan bool](file); err == nil {
		t.Error("expected an error")
	}
}

func TestWriteJsonFile_WrittenDataCanBeRead(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.json")
	want := testMetadata{Version: 2, Elements: 12}
	if err := WriteJsonFile(file, want); err != nil {
		t.Fatalf("failed to write JSON file: %v", err)
	}
	got, err := ReadJsonFile[testMetadata](file)
	if err != nil {
		t.Fatalf("failed to read JSON file: %v", err)
	}
	if got != want {
		t.Errorf("unexpected content, wanted %v, got %v", want, got)
	}
	if _, err := os.Stat(file + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be gone, got %v", err)
	}
}

func TestWriteJsonFile_OverwritesExistingContent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.json")
	for i := 0; i < 3; i++ {
		if err := WriteJsonFile(file, testMetadata{Version: i}); err != nil {
			t.Fatalf("failed to write JSON file: %v", err)
		}
	}
	got, err := ReadJsonFile[testMetadata](file)
	if err != nil {
		t.Fatalf("failed to read JSON file: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("unexpected version, wanted 2, got %d", got.Version)
	}
}

func TestWriteJsonFile_DetectsIoError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing", "meta.json")
	if err := WriteJsonFile(file, "test"); err == nil {
		t.Error("expected an error")
	}
}

func TestWriteJsonFile_DetectsMarshalingError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "meta.json")
	if err := WriteJsonFile(file, make(chan bool)); err == nil {
		t.Error("expected an error")
	}
}
