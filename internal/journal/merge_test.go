package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/model"
)

func entry(t *testing.T, id int64, experienceDate string, words ...string) model.Entry {
	t.Helper()
	e := model.Entry{
		ID:   id,
		Tags: []string{},
		Date: ts(t, "2024-01-01T00:00:00.000Z"),
	}
	if experienceDate != "" {
		e.ExperienceDate = ts(t, experienceDate)
	}
	copy(e.Words[:], words)
	return e
}

func ids(entries []model.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestMerge_RemoteWinsByID(t *testing.T) {
	local := []model.Entry{
		entry(t, 1, "2024-03-01", "old", "local", "words"),
		entry(t, 2, "2024-02-01", "only", "on", "device"),
	}
	remote := []model.Entry{
		entry(t, 1, "2024-03-01", "new", "remote", "words"),
		entry(t, 3, "2024-04-01", "from", "other", "device"),
	}

	merged := Merge(local, remote)

	require.Equal(t, []int64{3, 1, 2}, ids(merged))
	assert.Equal(t, model.Words{"new", "remote", "words"}, merged[1].Words)
	assert.Equal(t, model.Words{"only", "on", "device"}, merged[2].Words)
}

func TestMerge_Idempotent(t *testing.T) {
	local := []model.Entry{
		entry(t, 5, "2024-01-05", "a", "b", "c"),
		entry(t, 6, "", "d", "e", "f"),
		entry(t, 7, "2024-01-05", "g", "h", "i"),
	}
	remote := []model.Entry{
		entry(t, 6, "2024-06-01", "x", "y", "z"),
		entry(t, 8, "2024-01-05", "j", "k", "l"),
	}

	once := Merge(local, remote)
	twice := Merge(once, remote)
	assert.Equal(t, once, twice)
}

func TestMerge_PreservesEveryIDExactlyOnce(t *testing.T) {
	local := []model.Entry{
		entry(t, 1, "2024-01-01"),
		entry(t, 2, "2024-01-02"),
		entry(t, 2, "2024-01-03"),
	}
	remote := []model.Entry{
		entry(t, 2, "2024-01-04"),
		entry(t, 9, "2024-01-05"),
		entry(t, 9, "2024-01-06"),
	}

	merged := Merge(local, remote)

	want := IDs(local)
	for id := range IDs(remote) {
		want[id] = true
	}
	assert.Equal(t, want, IDs(merged))
	assert.Len(t, merged, len(want))
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))

	remote := []model.Entry{entry(t, 1, "2024-01-01")}
	assert.Equal(t, remote, Merge(nil, remote))
}

func TestSort_FallsBackToRecordDate(t *testing.T) {
	withoutExperience := entry(t, 1, "")
	withoutExperience.Date = ts(t, "2024-05-01T00:00:00.000Z")
	entries := []model.Entry{
		entry(t, 2, "2024-04-01"),
		withoutExperience,
		entry(t, 3, "2024-06-01"),
	}

	Sort(entries)
	assert.Equal(t, []int64{3, 1, 2}, ids(entries))
}

func TestPrepend_ImportedFirst(t *testing.T) {
	existing := []model.Entry{entry(t, 10, "2024-01-01"), entry(t, 11, "2024-01-02")}
	imported := []model.Entry{entry(t, 1, "2023-01-01"), entry(t, 11, "2020-01-01", "replaced")}

	result := Prepend(imported, existing)
	assert.Equal(t, []int64{1, 11, 10}, ids(result))
	assert.Equal(t, "replaced", result[1].Words[0])
}
