// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is a small document store over database/sql.

# Opening

Open picks the driver from the database type, pings, and creates the
schema:

	s, err := store.Open(store.TypeSQLite, "file:veato.db")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

Supported types are "sqlite" (modernc.org/sqlite) and "postgres"
(github.com/lib/pq).

# Schema Creation

CreateSchema is safe to call multiple times - it uses IF NOT EXISTS.

	document(collection, id, payload, updated_at)
	PRIMARY KEY (collection, id)

# Documents

Documents are opaque JSON blobs addressed by collection and id:

	err := store.PutJSON(ctx, s, "ballots", key, ballot)
	err := store.GetJSON(ctx, s, "polls", pollID, &poll)

Put is an upsert. Get returns ErrNotFound for missing documents. Delete
is idempotent.
*/
package store
