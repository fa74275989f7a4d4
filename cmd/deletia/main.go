// Package main provides the entry point for the deletia CLI.
//
// Deletia audits social media posts against the web archive: it finds
// archived captures of each post, stores their contents locally, and
// reports which posts have been deleted while evidence of them survives.
//
// Usage:
//
//	deletia audit <post-id-or-url>...
//	deletia audit --input <file>
//
// See --help for all available options.
package main

// main is the entry point for deletia.
func main() {
	Execute()
}
