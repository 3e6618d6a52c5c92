package trayseg

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the class names the segmentation Model was trained with
// from the given text file.  It should contain one label per line, the line
// number being the class ID.  A blank line keeps its ID as an unnamed class,
// blank lines at the end of the file are dropped
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels found in %s", file)
	}

	return labels, nil
}
