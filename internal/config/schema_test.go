package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildSchemaDescribesDocument(t *testing.T) {
	schema := BuildSchema()
	if schema.Title != "Emberfall Trial Configuration" {
		t.Fatalf("title = %q", schema.Title)
	}
	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("schema does not marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("schema round trip failed: %v", err)
	}
}

func TestWriteSchemaIsAtomic(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "nested", "trial.schema.json")
	if err := WriteSchema(outPath); err != nil {
		t.Fatalf("WriteSchema failed: %v", err)
	}
	if _, err := os.Stat(outPath + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written schema is not valid JSON: %v", err)
	}
}
