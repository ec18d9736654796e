// Package collection provides an ordered, optionally keyed or sorted list of
// state tree and map items with add/remove notifications.
package collection
