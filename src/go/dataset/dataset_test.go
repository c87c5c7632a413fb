package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvind3/qa-intelligence-platform/src/go/types"
)

const validJSON = `[
  {"test_case_id":"TC-1","test_plan_id":"TP-1","test_suite_id":"TS-1",
   "title":"Auth: login","description":"happy path","steps":"open | submit",
   "tags":["auth","smoke"]},
  {"test_case_id":"TC-2","test_plan_id":"TP-1","test_suite_id":"TS-2",
   "title":"Catalog: browse","description":"","steps":"","tags":[]}
]`

func TestParseRows(t *testing.T) {
	rows, err := ParseRows([]byte(validJSON))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "TC-1", rows[0].ID)
	assert.Equal(t, []string{"auth", "smoke"}, rows[0].Tags)
	assert.Equal(t, "Catalog: browse", rows[1].Title)
}

func TestParseRowsRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not json":      "hello",
		"object":        `{"test_case_id":"TC-1","title":"t"}`,
		"missing id":    `[{"title":"t"}]`,
		"blank id":      `[{"test_case_id":"  ","title":"t"}]`,
		"missing title": `[{"test_case_id":"TC-1"}]`,
		"malformed row": `[{"test_case_id":123,"title":"t"}]`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			rows, err := ParseRows([]byte(input))
			assert.ErrorIs(t, err, types.ErrInvalidDataset)
			assert.Nil(t, rows, "no partial load on error")
		})
	}
}

func TestParseRowsNoPartialLoad(t *testing.T) {
	// first row fine, second invalid
	input := `[{"test_case_id":"TC-1","title":"t"},{"test_case_id":"","title":"t"}]`
	rows, err := ParseRows([]byte(input))
	assert.ErrorIs(t, err, types.ErrInvalidDataset)
	assert.Nil(t, rows)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(validJSON), 0o644))

	rows, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestExportJSONRoundTrip(t *testing.T) {
	rows, err := ParseRows([]byte(validJSON))
	require.NoError(t, err)

	out, err := ExportJSON(rows)
	require.NoError(t, err)

	back, err := ParseRows(out)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestExportJSONEmpty(t *testing.T) {
	out, err := ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestExportDelimited(t *testing.T) {
	rows := []types.TestCase{
		{ID: "TC-1", PlanID: "TP-1", SuiteID: "TS-1", Title: "Auth: login",
			Description: "happy, path", Steps: "open | submit", Tags: []string{"auth", "smoke"}},
	}

	out, err := ExportDelimited(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "test_case_id,test_plan_id,test_suite_id,title,description,steps,tags", lines[0])
	assert.Contains(t, lines[1], "auth|smoke", "tags are pipe-joined in one column")
	assert.Contains(t, lines[1], `"happy, path"`, "commas inside fields are quoted")
}
