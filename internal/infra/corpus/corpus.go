package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Corpus is the fixed statutory reference set. Loaded once at startup,
// read-only for the life of the process.
type Corpus struct {
	Acts     []Act     `yaml:"acts"`
	Articles []Article `yaml:"articles"`
}

type Act struct {
	Name     string    `yaml:"name"`
	Alias    string    `yaml:"alias"`
	Sections []Section `yaml:"sections"`
}

type Section struct {
	Section string `yaml:"section"`
	Title   string `yaml:"title"`
}

type Article struct {
	Article string `yaml:"article"`
	Title   string `yaml:"title"`
}

// Load reads the corpus YAML file.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(c.Acts) == 0 && len(c.Articles) == 0 {
		return nil, fmt.Errorf("corpus %s is empty", path)
	}
	return &c, nil
}
