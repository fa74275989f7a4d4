// Package archive talks to the web archive's two request surfaces.
//
// The CDX client queries the index endpoint for the captures of a post;
// the content client retrieves the archived bytes of one capture. Both
// route every request through the surface's pacing controller and the
// retry wrapper, and both map HTTP failures into the error taxonomy that
// retry classification is built on.
//
// The package also carries two small helpers tied to the archive's data
// formats: the SHA-1/base32 content digest the CDX index reports, and a
// best-effort extractor that pulls the post text out of an archived page.
package archive
