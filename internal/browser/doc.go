// Package browser renders archived snapshots in headless Chrome and
// captures screenshots of them.
//
// Screenshots complement stored bytes as evidence: a raw HTML blob proves
// what the archive served, a rendered image shows a human what the post
// looked like. The package wraps chromedp and is entirely optional; audits
// run without a browser installed.
package browser
