package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kjk/asistentepa/require"
)

func TestMarshalEvent(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	ms := "1705314645123"
	tests := []struct {
		name string
		d    []byte
		exp  string
	}{
		{"insert", []byte("key: A"), "--- 6 " + ms + " insert\nkey: A\n"},
		{"insert", []byte("key: A\n"), "--- 7 " + ms + " insert\nkey: A\n"},
		{"delete", nil, "--- 0 " + ms + " delete\n"},
	}
	for _, tc := range tests {
		got := MarshalEvent(tc.name, ts, tc.d)
		require.Equal(t, tc.exp, string(got))
	}
}

func TestReadEventsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	var buf bytes.Buffer
	buf.Write(MarshalEvent("insert", ts, []byte("key: A")))
	buf.Write(MarshalEvent("restore", ts.Add(time.Second), nil))
	buf.Write(MarshalEvent("update", ts, []byte("key: B\nprice: 3\n")))

	recs, err := ReadEvents(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "insert", recs[0].Name)
	require.Equal(t, "key: A", string(recs[0].Data))
	require.True(t, recs[0].Time.Equal(ts))
	require.Equal(t, "restore", recs[1].Name)
	require.Len(t, recs[1].Data, 0)
	require.Equal(t, "key: B\nprice: 3\n", string(recs[2].Data))

	_, err = ReadEvents(bytes.NewBufferString("--- x 1 insert\n"))
	require.Error(t, err)
	_, err = ReadEvents(bytes.NewBufferString("--- 100 1 insert\nshort"))
	require.Error(t, err)
	_, err = ReadEvents(bytes.NewBufferString("garbage\n"))
	require.Error(t, err)
}

func TestEventWritesToEventsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(&Config{Dir: dir}))
	defer Close()

	Event("insert", "key", "Ficus_lyrata", "price", 45000.0)
	Event("delete", "key", "Aloe_vera")
	Flush()

	recs, err := ReadEventsDir(EventsDir(dir))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "insert", recs[0].Name)
	require.Contains(t, string(recs[0].Data), "Ficus_lyrata")
	require.Equal(t, "delete", recs[1].Name)

	recs, err = ReadEventsDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.Len(t, recs, 0)
}

func TestLogfBeforeInit(t *testing.T) {
	Close()
	// must not crash when log files are not set up
	Logf("hello %s\n", "world")
	Event("insert", "key", "A")
	CommandFailed([]string{"get", "A"}, errors.New("not found"))
	Flush()
}

func TestInit(t *testing.T) {
	require.Error(t, Init(&Config{}))
	require.Error(t, Init(nil))

	// a file where the directory should be
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0644))
	require.Error(t, Init(&Config{Dir: notDir}))

	require.NoError(t, Init(&Config{Dir: dir}))
	defer Close()
	st, err := os.Stat(EventsDir(dir))
	require.NoError(t, err)
	require.True(t, st.IsDir())
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(&Config{Dir: dir}))
	Logf("line %d\n", 1)
	Verbose = false
	Verbosef("not logged\n")
	NumberCoerced(3, "cycleDays", "noventa")
	CommandFailed([]string{"delete", "Aloe_vera"}, errors.New("disk full"))
	Close()

	name := time.Now().UTC().Format("2006-01-02") + ".txt"
	d, err := os.ReadFile(filepath.Join(dir, "log", name))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(d), "\n"), "\n")
	require.Len(t, lines, 3)
	// "15:04:05 " prefix
	require.Equal(t, "line 1", lines[0][9:])
	require.Equal(t, "warning: line 3: cycleDays 'noventa' is not a number, using 0", lines[1][9:])
	require.Equal(t, "failed: delete Aloe_vera: disk full", lines[2][9:])
}

func TestDailyFile(t *testing.T) {
	dir := t.TempDir()
	w := newDailyFile(dir)
	require.NoError(t, w.write([]byte("line 1\n")))
	require.NoError(t, w.write([]byte("line 2\n")))
	require.NoError(t, w.close())

	name := time.Now().UTC().Format("2006-01-02") + ".txt"
	d, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "line 1\nline 2\n", string(d))

	// reopens after close
	require.NoError(t, w.write([]byte("line 3\n")))
	require.NoError(t, w.close())
	d, err = os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "line 1\nline 2\nline 3\n", string(d))

	var nilW *dailyFile
	require.NoError(t, nilW.write([]byte("ignored")))
	require.NoError(t, nilW.close())
	require.NoError(t, nilW.sync())
}
