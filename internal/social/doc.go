// Package social checks whether a post is still live on its platform.
//
// The check is a single HTTP probe of the post's canonical URL. It is the
// only part of an audit that talks to the platform itself rather than the
// archive, and it is deliberately thin: deletia decides deleted-vs-extant
// from the response status and nothing else.
package social
