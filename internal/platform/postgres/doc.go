// Package postgres is the PostgreSQL datastore: it owns one connection pool
// per configured database, runs the embedded goose migrations, and serves
// resources through the generic Table, which translates aggregate filters
// into parameterized SQL.
package postgres
