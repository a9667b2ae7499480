package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/generation"
	"gopkg.in/yaml.v3"
)

// inputItem is one document in a batch file.
type inputItem struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// inputFile is the batch file layout. A file holding only a list is read
// as the items with default options.
type inputFile struct {
	Items   []inputItem        `yaml:"items"`
	Options generation.Options `yaml:"options"`
}

// readInput parses a YAML or JSON batch file. JSON is read by the YAML
// decoder as a subset of YAML.
func readInput(path string) (*inputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return parseInput(data)
}

func parseInput(data []byte) (*inputFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("batch file is empty")
	}

	var in inputFile
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&in.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to decode batch file: %w", err)
		}
	default:
		return nil, errors.New("batch file must hold a list of items or an object with an items key")
	}

	for i := range in.Items {
		if in.Items[i].ID == "" {
			in.Items[i].ID = fmt.Sprintf("item-%d", i+1)
		}
	}
	return &in, nil
}

func (in *inputFile) workItems() []batch.WorkItem {
	items := make([]batch.WorkItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = batch.WorkItem{ID: it.ID, Title: it.Title, Content: it.Content}
	}
	return items
}
