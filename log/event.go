package log

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/toon-format/toon-go"
)

// EventRecord is one event read back from an events file
type EventRecord struct {
	Name string
	Time time.Time
	// toon-encoded key / value pairs
	Data []byte
}

var eventPrefix = []byte("--- ")

// simpleTypeToStr converts simple types to string
// panics if v is of complex type
func simpleTypeToStr(v any) string {
	rt := reflect.TypeOf(v)
	kind := rt.Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("toStr: value is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprintf("%v", v)
}

// MarshalEvent serializes an event as:
// "--- ${len(data)} ${unix_ms} ${name}\n${data}\n"
func MarshalEvent(name string, t time.Time, d []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(eventPrefix) + len(name) + len(d) + 32)
	b.Write(eventPrefix)
	b.WriteString(strconv.Itoa(len(d)))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteByte('\n')
	// for readability every record ends with a newline
	if len(d) > 0 {
		b.Write(d)
		if d[len(d)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

// Event records a change to the store e.g. Event("insert", "key", "Ficus_lyrata")
// vals are key / value pairs, encoded with toon
func Event(name string, vals ...any) {
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("Event('%s'): odd number of values: %d", name, n))
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k := simpleTypeToStr(vals[i])
			m[k] = vals[i+1]
		}
		var err error
		d, err = toon.Marshal(m)
		if err != nil {
			Warnf("Event('%s'): toon.Marshal() failed with '%s'\n", name, err)
			return
		}
	}
	Verbosef("event: %s %v\n", name, vals)
	err := eventsFile.write(MarshalEvent(name, time.Now().UTC(), d))
	if err != nil {
		Warnf("failed to record event '%s': %s\n", name, err)
	}
}

// ReadEvents parses events written by Event()
func ReadEvents(r io.Reader) ([]*EventRecord, error) {
	br := bufio.NewReader(r)
	var res []*EventRecord
	for {
		hdr, err := br.ReadBytes('\n')
		if err == io.EOF && len(hdr) == 0 {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("truncated event header '%s': %w", hdr, err)
		}
		rec, size, err := parseEventHeader(hdr)
		if err != nil {
			return res, err
		}
		if size > 0 {
			rec.Data = make([]byte, size)
			if _, err = io.ReadFull(br, rec.Data); err != nil {
				return res, fmt.Errorf("event '%s': %w", rec.Name, err)
			}
			if rec.Data[size-1] != '\n' {
				// newline added by MarshalEvent
				if c, err := br.ReadByte(); err != nil || c != '\n' {
					return res, fmt.Errorf("event '%s': missing newline after data", rec.Name)
				}
			}
		}
		res = append(res, rec)
	}
}

func parseEventHeader(hdr []byte) (*EventRecord, int, error) {
	line := bytes.TrimSuffix(hdr, []byte("\n"))
	if !bytes.HasPrefix(line, eventPrefix) {
		return nil, 0, fmt.Errorf("invalid event header '%s'", line)
	}
	parts := bytes.SplitN(line[len(eventPrefix):], []byte(" "), 3)
	if len(parts) != 3 {
		return nil, 0, fmt.Errorf("invalid event header '%s'", line)
	}
	size, err := strconv.Atoi(string(parts[0]))
	if err != nil || size < 0 {
		return nil, 0, fmt.Errorf("invalid size in event header '%s'", line)
	}
	ms, err := strconv.ParseInt(string(parts[1]), 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid time in event header '%s'", line)
	}
	rec := &EventRecord{
		Name: string(parts[2]),
		Time: time.UnixMilli(ms).UTC(),
	}
	return rec, size, nil
}

// ReadEventsDir reads all events files in dir, oldest first.
// Missing directory means there are no events.
func ReadEventsDir(dir string) ([]*EventRecord, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	// file names are dates
	sort.Strings(files)
	var res []*EventRecord
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		recs, err := ReadEvents(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
		res = append(res, recs...)
	}
	return res, nil
}
