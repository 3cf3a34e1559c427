// Package library persists completed podcasts and series in SQLite.
//
// The store consumes podcast.Podcast and podcast.Series values verbatim. A
// series and its episodes are written in a single transaction so a reader never
// observes a series without its episodes.
package library
