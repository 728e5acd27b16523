package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"roomcast/errors"
)

func TestLoadCensoredWords_Embedded_Dictionaries(t *testing.T) {
	req := require.New(t)

	// When loading the dictionaries shipped with the binary
	data, err := LoadCensoredWords()

	// Then every language file is accounted for
	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)

	// And words from both files are merged into one list
	req.Contains(data.Words, "badger")
	req.Contains(data.Words, "crapule")

	// And the list holds no duplicates
	seen := make(map[string]struct{}, len(data.Words))
	for _, w := range data.Words {
		_, dup := seen[w]
		req.False(dup, "duplicate word %q", w)
		seen[w] = struct{}{}
	}
}

func TestCensoredLoader_Missing_Directory(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredFolder)

	_, err := loader.LoadAll("no-such-dir")

	req.Error(err)
	req.NotErrorIs(err, errors.ErrEmptyWords)
}
