// Package reelscrape extracts movie, category and download metadata from the
// inconsistently marked-up pages of a movie download site and resolves its
// indirect download links down to directly playable media URLs.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, rod/).
package reelscrape
