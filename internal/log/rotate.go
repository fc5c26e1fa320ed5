package log

import (
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// dayLayout identifies a calendar day.
	dayLayout = "2006-01-02"

	// maxSizeMB rolls a file over early when one day's log grows past it.
	maxSizeMB = 100
)

// DailyFile is a log file that rolls over when the calendar day changes.
// The finished day is kept beside the live file under a timestamped name,
// e.g. AAPL-crawler-2017-01-04T05-30-00.000.log. Backups are never deleted.
type DailyFile struct {
	mu  sync.Mutex
	out *lumberjack.Logger

	now func() time.Time
	loc *time.Location

	// day is the date the live file belongs to.
	day string
}

// openDailyFile opens path for appending. An existing file belongs to the
// day it was last modified on, so a file left by an earlier run rolls over
// on the first write of a new day.
func openDailyFile(path string, now func() time.Time, loc *time.Location) (*DailyFile, error) {
	f := &DailyFile{
		out: &lumberjack.Logger{Filename: path, MaxSize: maxSizeMB},
		now: now,
		loc: loc,
	}
	f.day = f.today()
	if info, err := os.Stat(path); err == nil {
		f.day = info.ModTime().In(loc).Format(dayLayout)
	}

	// An empty write opens the file now instead of at the first record.
	if _, err := f.out.Write(nil); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *DailyFile) today() string {
	return f.now().In(f.loc).Format(dayLayout)
}

// Write appends p, rolling the file over first if the day has changed.
func (f *DailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if today := f.today(); today != f.day {
		if err := f.out.Rotate(); err != nil {
			return 0, err
		}
		f.day = today
	}
	return f.out.Write(p)
}

// Close closes the live file.
func (f *DailyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.out.Close()
}
