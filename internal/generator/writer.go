package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDataset serializes the dataset into members.json and visits.json
// under the provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	membersPath := filepath.Join(dir, "members.json")
	if err := writeJSON(membersPath, dataset.Members); err != nil {
		return err
	}

	visitsPath := filepath.Join(dir, "visits.json")
	if err := writeJSON(visitsPath, dataset.Visits); err != nil {
		return err
	}

	return nil
}

// ReadDataset loads members.json and visits.json back from the directory.
// Either file may be absent; the corresponding slice stays empty.
func ReadDataset(dir string) (Dataset, error) {
	var dataset Dataset

	membersPath := filepath.Join(dir, "members.json")
	if err := readJSON(membersPath, &dataset.Members); err != nil {
		return Dataset{}, err
	}

	visitsPath := filepath.Join(dir, "visits.json")
	if err := readJSON(visitsPath, &dataset.Visits); err != nil {
		return Dataset{}, err
	}

	return dataset, nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, dst any) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(dst); err != nil {
		return fmt.Errorf("decode json from %s: %w", path, err)
	}
	return nil
}
