// Package journal keeps a persistent log of applied track edits.
package journal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/track"
)

const keyPrefix = "change:"

func key(seq uint64) string {
	return fmt.Sprintf("%s%020d", keyPrefix, seq)
}

type Entry struct {
	Seq    uint64       `json:"seq"`
	Change track.Change `json:"change"`
}

type Journal struct {
	db   *buntdb.DB
	lock sync.Mutex
	seq  uint64
}

// Open opens the journal at path. ":memory:" keeps it in memory only.
func Open(path string) (*Journal, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	var cfg buntdb.Config
	err = db.ReadConfig(&cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	cfg.SyncPolicy = buntdb.Always
	err = db.SetConfig(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	j := &Journal{db: db}
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.DescendKeys(keyPrefix+"*", func(k, _ string) bool {
			seq, err := strconv.ParseUint(strings.TrimPrefix(k, keyPrefix), 10, 64)
			if err != nil {
				zap.S().Errorw("parsing key failed", "key", k)
				return true
			}
			j.seq = seq
			return false
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	zap.S().Infow("opened journal", "path", path, "seq", j.seq)
	return j, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends ch and returns its sequence number.
func (j *Journal) Record(ch track.Change) (uint64, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	e := Entry{Seq: j.seq + 1, Change: ch}
	data, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	err = j.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(e.Seq), string(data), nil)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("record %s: %w", ch.ID, err)
	}
	j.seq = e.Seq
	return e.Seq, nil
}

// List returns entries in the order they were recorded. If trackName is not empty, only that track's entries are returned.
func (j *Journal) List(trackName string) ([]Entry, error) {
	var es []Entry
	err := j.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(keyPrefix+"*", func(k, value string) bool {
			var e Entry
			err := json.Unmarshal([]byte(value), &e)
			if err != nil {
				decodeErr = fmt.Errorf("key %s: %w", k, err)
				return false
			}
			if trackName == "" || e.Change.Track == trackName {
				es = append(es, e)
			}
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	return es, err
}

func (j *Journal) Len() (int, error) {
	n := 0
	err := j.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(_, _ string) bool {
			n++
			return true
		})
	})
	return n, err
}
