// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores aggregation runs in a SQL database so sweeps can
// be compared later without rereading their output trees.
//
// Each run holds the records of one aggregation report. A record is
// stored as opaque content bytes plus a flat name→value parameter
// map, so the store does not depend on any report format.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"
)

// DB is a high-level interface to the run store. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	lastRun      *sql.Stmt
	insertRun    *sql.Stmt
	insertRecord *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. This is used by the sqlite3 package to
// register a ConnectHook. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID VARCHAR(20) PRIMARY KEY,
	Day VARCHAR(8),
	Seq BIGINT UNSIGNED{{if not .sqlite3}},
	Index (Day, Seq){{end}}
);
CREATE TABLE IF NOT EXISTS Records (
	RunID VARCHAR(20),
	RecordID BIGINT UNSIGNED,
	Content BLOB,
	PRIMARY KEY (RunID, RecordID),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RecordParams (
	RunID VARCHAR(20),
	RecordID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (RunID, RecordID) REFERENCES Records(RunID, RecordID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RecordParamsNameValue ON RecordParams(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.lastRun, err = db.sql.Prepare("SELECT MAX(Seq) FROM Runs WHERE Day = ?")
	if err != nil {
		return err
	}
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(RunID, Day, Seq) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRecord, err = db.sql.Prepare("INSERT INTO Records(RunID, RecordID, Content) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing.
var now = time.Now

// SetNow changes the clock used by the package. It should only be
// used in testing.
func SetNow(t time.Time) {
	if t.IsZero() {
		now = time.Now
		return
	}
	now = func() time.Time { return t }
}

// A Run is an open transaction collecting the records of one
// aggregation run. All records written to the Run share its ID.
type Run struct {
	// ID is the day-scoped identifier of the run, "YYYYMMDD.n".
	ID string

	// recordid is the index of the next record to insert.
	recordid int64
	db       *DB
	tx       *sql.Tx
}

// NewRun starts a run for storing new records. The run holds an open
// transaction; nothing is visible until Commit.
func (db *DB) NewRun(ctx context.Context) (*Run, error) {
	day := now().UTC().Format("20060102")

	num := int64(1)

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	var last sql.NullInt64
	err = tx.Stmt(db.lastRun).QueryRow(day).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if last.Valid {
		num = last.Int64 + 1
	}

	id := fmt.Sprintf("%s.%d", day, num)
	if _, err := tx.Stmt(db.insertRun).Exec(id, day, num); err != nil {
		return nil, err
	}

	u := &Run{ID: id, db: db, tx: tx}
	tx = nil
	return u, nil
}

// InsertRecord stores a single record in the run: its content bytes
// and its parameter map. Parameters are written in sorted name order.
func (u *Run) InsertRecord(content []byte, params map[string]string) error {
	if _, err := u.tx.Stmt(u.db.insertRecord).Exec(u.ID, u.recordid, content); err != nil {
		return err
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		var args []interface{}
		for _, name := range names {
			args = append(args, u.ID, u.recordid, name, params[name])
		}
		query := "INSERT INTO RecordParams VALUES " + strings.Repeat("(?, ?, ?, ?), ", len(names))
		query = strings.TrimSuffix(query, ", ")
		if _, err := u.tx.Exec(query, args...); err != nil {
			return err
		}
	}
	u.recordid++
	return nil
}

// Commit finishes the run, making its records visible.
func (u *Run) Commit() error {
	defer func() { u.tx = nil }()
	return u.tx.Commit()
}

// Abort abandons the run. It does not attempt to clean up partial
// database state.
func (u *Run) Abort() error {
	defer func() { u.tx = nil }()
	return u.tx.Rollback()
}

// A RunInfo describes one committed run.
type RunInfo struct {
	ID      string
	Records int
}

// ListRuns returns committed runs, newest first. A positive limit
// caps the number returned.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	query := `
SELECT r.RunID, COUNT(rec.RecordID)
FROM Runs r LEFT JOIN Records rec ON r.RunID = rec.RunID
GROUP BY r.RunID, r.Day, r.Seq
ORDER BY r.Day DESC, r.Seq DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var ri RunInfo
		if err := rows.Scan(&ri.ID, &ri.Records); err != nil {
			return nil, err
		}
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// A StoredRecord is one record read back from the store.
type StoredRecord struct {
	RunID    string
	RecordID int64
	Content  []byte
	Params   map[string]string
}

// Records returns the records of the run runID in insertion order.
func (db *DB) Records(ctx context.Context, runID string) ([]StoredRecord, error) {
	rows, err := db.sql.QueryContext(ctx,
		"SELECT RecordID, Content FROM Records WHERE RunID = ? ORDER BY RecordID", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []StoredRecord
	index := make(map[int64]int)
	for rows.Next() {
		var rec StoredRecord
		rec.RunID = runID
		rec.Params = make(map[string]string)
		if err := rows.Scan(&rec.RecordID, &rec.Content); err != nil {
			return nil, err
		}
		index[rec.RecordID] = len(recs)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := db.sql.QueryContext(ctx,
		"SELECT RecordID, Name, Value FROM RecordParams WHERE RunID = ?", runID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var id int64
		var name, value string
		if err := prows.Scan(&id, &name, &value); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			recs[i].Params[name] = value
		}
	}
	return recs, prows.Err()
}

// RunsForParam returns the IDs of runs containing at least one record
// whose parameter name has the given value, oldest first.
func (db *DB) RunsForParam(ctx context.Context, name, value string) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT r.RunID
FROM Runs r JOIN RecordParams p ON r.RunID = p.RunID
WHERE p.Name = ? AND p.Value = ?
GROUP BY r.RunID, r.Day, r.Seq
ORDER BY r.Day, r.Seq`, name, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountRuns returns the number of committed runs.
func (db *DB) CountRuns() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Runs").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open
// resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.lastRun, db.insertRun, db.insertRecord} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
