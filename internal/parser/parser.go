package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// SplitTargets expands comma-separated arguments into individual targets,
// dropping empty entries. Order is preserved and duplicates are kept.
func SplitTargets(args []string) []string {
	var targets []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				targets = append(targets, part)
			}
		}
	}
	return targets
}

// ReadTargetsFile reads targets from a CSV file (first column, header row
// skipped) or a plain text file (one target per line, '#' starts a comment).
func ReadTargetsFile(filePath string) ([]string, error) {
	if !fileExists(filePath) {
		return nil, fmt.Errorf("target file %s does not exist", filePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.HasSuffix(strings.ToLower(filePath), ".csv") {
		return readCSVTargets(file)
	}
	return readLineTargets(file)
}

func readCSVTargets(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	var targets []string
	for i, record := range records {
		if i == 0 {
			continue
		} // Skip header
		if len(record) > 0 {
			if target := strings.TrimSpace(record[0]); target != "" {
				targets = append(targets, target)
			}
		}
	}
	return targets, nil
}

func readLineTargets(r io.Reader) ([]string, error) {
	var targets []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		targets = append(targets, SplitTargets([]string{line})...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

// fileExists checks if a file exists.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
