// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// Every method runs on the caller's session (database.Querier), so all
// statements of one invocation share its transaction.
package repository
