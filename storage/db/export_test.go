// Copyright 2026 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import "database/sql"

func DBSQL(db *DB) *sql.DB {
	return db.sql
}
