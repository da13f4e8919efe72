// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// All queries route through the gateway, which owns connection
// recovery; repositories never retry on their own.
package repository
