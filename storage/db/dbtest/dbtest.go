// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo

// Package dbtest provides a database for testing.
package dbtest

import (
	"flag"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/metasweep/sweep/storage/db"
	_ "github.com/metasweep/sweep/storage/db/sqlite3"
)

var mysql = flag.String("mysql", "", "test against this MySQL DSN instead of in-memory SQLite")

// NewDB makes a connection to a testing database, either in-memory
// sqlite3 or the MySQL instance named by the -mysql flag. cleanup
// must be called when done with the testing database, instead of
// calling db.Close().
func NewDB(t *testing.T) (*db.DB, func()) {
	driverName, dataSourceName := "sqlite3", ":memory:"
	if *mysql != "" {
		driverName, dataSourceName = "mysql", *mysql
	}
	d, err := db.OpenSQL(driverName, dataSourceName)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	cleanup := func() { d.Close() }
	// Make sure the database really is empty.
	runs, err := d.CountRuns()
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if runs != 0 {
		cleanup()
		t.Fatalf("found %d row(s) in Runs, want 0", runs)
	}
	return d, cleanup
}
